// Package results aggregates batch ranking results and writes reports.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// Result is the ranking of a single record pair
type Result struct {
	ID             string           `json:"id" yaml:"id"`
	Score          int              `json:"score" yaml:"score"`
	Preferred      int              `json:"preferred" yaml:"preferred"`
	Expected       int              `json:"expected,omitempty" yaml:"expected,omitempty"`
	Comparison     *rank.Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	ProcessingTime time.Duration    `json:"processing_time_ns" yaml:"processing_time_ns"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Agrees reports whether a labeled pair was ranked the way it was labeled
func (r *Result) Agrees() bool {
	return r.Error == "" && r.Expected != 0 && r.Preferred == r.Expected
}

// Summary aggregates a batch run
type Summary struct {
	TotalPairs   int `json:"total_pairs" yaml:"total_pairs"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	FailureCount int `json:"failure_count" yaml:"failure_count"`

	Record1Preferred int `json:"record1_preferred" yaml:"record1_preferred"`
	Record2Preferred int `json:"record2_preferred" yaml:"record2_preferred"`
	Ties             int `json:"ties" yaml:"ties"`

	// Pairs carrying a cataloger's choice, and how many the ranker matched
	LabeledPairs int     `json:"labeled_pairs" yaml:"labeled_pairs"`
	Agreements   int     `json:"agreements" yaml:"agreements"`
	Agreement    float64 `json:"agreement" yaml:"agreement"`

	AverageProcessingTime time.Duration `json:"average_processing_time_ns" yaml:"average_processing_time_ns"`
	TotalProcessingTime   time.Duration `json:"total_processing_time_ns" yaml:"total_processing_time_ns"`

	Results []Result `json:"results" yaml:"results"`

	EvaluationDate time.Time `json:"evaluation_date" yaml:"evaluation_date"`
	ConfigPath     string    `json:"config_path" yaml:"config_path"`
	DatasetPath    string    `json:"dataset_path" yaml:"dataset_path"`
	Features       []string  `json:"features" yaml:"features"`
}

// Summarize aggregates per-pair results
func Summarize(results []Result, configPath, datasetPath string, features []string) *Summary {
	s := &Summary{
		TotalPairs:     len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		ConfigPath:     configPath,
		DatasetPath:    datasetPath,
		Features:       features,
	}

	var successDuration time.Duration
	for _, result := range results {
		s.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" {
			s.FailureCount++
			continue
		}

		s.SuccessCount++
		successDuration += result.ProcessingTime

		switch result.Preferred {
		case 1:
			s.Record1Preferred++
		case 2:
			s.Record2Preferred++
		default:
			s.Ties++
		}

		if result.Expected != 0 {
			s.LabeledPairs++
			if result.Agrees() {
				s.Agreements++
			}
		}
	}

	if s.SuccessCount > 0 {
		s.AverageProcessingTime = successDuration / time.Duration(s.SuccessCount)
	}
	if s.LabeledPairs > 0 {
		s.Agreement = float64(s.Agreements) / float64(s.LabeledPairs)
	}

	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// PrintSummary writes a human-readable summary of the run
func (s *Summary) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "MARC RECORD RANKING SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", s.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Configuration: %s\n", s.ConfigPath)
	fmt.Fprintf(w, "Dataset: %s\n", s.DatasetPath)
	fmt.Fprintf(w, "Features: %d\n", len(s.Features))
	for i, f := range s.Features {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, f)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROCESSING STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Pairs: %d\n", s.TotalPairs)
	fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", s.SuccessCount, percent(s.SuccessCount, s.TotalPairs))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", s.FailureCount, percent(s.FailureCount, s.TotalPairs))
	fmt.Fprintf(w, "Average Processing Time: %s\n", s.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", s.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PREFERENCES")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Record 1 preferred: %d (%.1f%%)\n", s.Record1Preferred, percent(s.Record1Preferred, s.SuccessCount))
	fmt.Fprintf(w, "Record 2 preferred: %d (%.1f%%)\n", s.Record2Preferred, percent(s.Record2Preferred, s.SuccessCount))
	fmt.Fprintf(w, "Ties: %d (%.1f%%)\n", s.Ties, percent(s.Ties, s.SuccessCount))

	if s.LabeledPairs > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "AGREEMENT WITH CATALOGERS")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		fmt.Fprintf(w, "Labeled Pairs: %d\n", s.LabeledPairs)
		fmt.Fprintf(w, "Agreement: %.2f%% (%d/%d)\n", s.Agreement*100, s.Agreements, s.LabeledPairs)
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// SaveToJSON saves the summary and every result to a JSON file
func (s *Summary) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}
