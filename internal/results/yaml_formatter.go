package results

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// RunConfig is the header of a YAML report
type RunConfig struct {
	ConfigPath  string   `yaml:"configpath"`
	DatasetPath string   `yaml:"datasetpath"`
	Features    []string `yaml:"features"`
	PairCount   int      `yaml:"paircount"`
	Timestamp   string   `yaml:"timestamp"`
}

// PairReport is one pair in a YAML report
type PairReport struct {
	Identifier  string   `yaml:"identifier"`
	Score       int      `yaml:"score"`
	Preferred   int      `yaml:"preferred"`
	Expected    int      `yaml:"expected,omitempty"`
	Normalized1 []string `yaml:"normalized1,omitempty"`
	Normalized2 []string `yaml:"normalized2,omitempty"`
	Error       string   `yaml:"error,omitempty"`
}

// Report is the complete YAML report
type Report struct {
	Config  RunConfig    `yaml:"config"`
	Totals  Totals       `yaml:"totals"`
	Results []PairReport `yaml:"results"`
}

// Totals repeats the summary counters in a YAML report
type Totals struct {
	Record1Preferred int     `yaml:"record1preferred"`
	Record2Preferred int     `yaml:"record2preferred"`
	Ties             int     `yaml:"ties"`
	Failures         int     `yaml:"failures"`
	Agreement        float64 `yaml:"agreement,omitempty"`
}

// BuildReport converts a summary into its YAML report form
func (s *Summary) BuildReport() Report {
	report := Report{
		Config: RunConfig{
			ConfigPath:  s.ConfigPath,
			DatasetPath: s.DatasetPath,
			Features:    s.Features,
			PairCount:   s.TotalPairs,
			Timestamp:   s.EvaluationDate.Format("2006-01-02_15-04-05"),
		},
		Totals: Totals{
			Record1Preferred: s.Record1Preferred,
			Record2Preferred: s.Record2Preferred,
			Ties:             s.Ties,
			Failures:         s.FailureCount,
			Agreement:        s.Agreement,
		},
		Results: make([]PairReport, 0, len(s.Results)),
	}

	for _, r := range s.Results {
		pair := PairReport{
			Identifier: r.ID,
			Score:      r.Score,
			Preferred:  r.Preferred,
			Expected:   r.Expected,
			Error:      r.Error,
		}
		if r.Comparison != nil {
			pair.Normalized1 = scoreStrings(r.Comparison.Normalized1)
			pair.Normalized2 = scoreStrings(r.Comparison.Normalized2)
		}
		report.Results = append(report.Results, pair)
	}

	return report
}

func scoreStrings(v rank.Vector) []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = s.String()
	}
	return out
}

// SaveToYAML writes the YAML report to path
func (s *Summary) SaveToYAML(path string) error {
	report := s.BuildReport()

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}
