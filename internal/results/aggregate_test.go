package results

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

func testResults() []Result {
	return []Result{
		{
			ID:             "a",
			Score:          1,
			Preferred:      1,
			Expected:       1,
			ProcessingTime: 2 * time.Millisecond,
			Comparison: &rank.Comparison{
				Labels:      []string{"encodingLevel", "recordAge"},
				Raw1:        rank.Vector{rank.Int(4), rank.Str("850506")},
				Raw2:        rank.Vector{rank.Null(), rank.Str("870506")},
				Normalized1: rank.Vector{rank.Int(1), rank.Int(0)},
				Normalized2: rank.Vector{rank.Int(0), rank.Int(1)},
				Sum1:        1,
				Sum2:        1,
			},
		},
		{ID: "b", Score: -2, Preferred: 2, Expected: 1, ProcessingTime: 4 * time.Millisecond},
		{ID: "c", Score: 0, Preferred: 0, ProcessingTime: 3 * time.Millisecond},
		{ID: "d", Error: "failed to extract features from record 2", ProcessingTime: time.Millisecond},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testResults(), "ranking.yaml", "pairs.jsonl", []string{"encodingLevel", "recordAge"})

	if s.TotalPairs != 4 {
		t.Errorf("Expected 4 pairs, got %d", s.TotalPairs)
	}
	if s.SuccessCount != 3 || s.FailureCount != 1 {
		t.Errorf("Expected 3 successes and 1 failure, got %d/%d", s.SuccessCount, s.FailureCount)
	}
	if s.Record1Preferred != 1 || s.Record2Preferred != 1 || s.Ties != 1 {
		t.Errorf("Expected 1/1/1 preferences, got %d/%d/%d", s.Record1Preferred, s.Record2Preferred, s.Ties)
	}
	if s.LabeledPairs != 2 || s.Agreements != 1 {
		t.Errorf("Expected 1 of 2 labeled pairs to agree, got %d of %d", s.Agreements, s.LabeledPairs)
	}
	if s.Agreement != 0.5 {
		t.Errorf("Expected agreement 0.5, got %f", s.Agreement)
	}
	if s.AverageProcessingTime != 3*time.Millisecond {
		t.Errorf("Expected average 3ms, got %s", s.AverageProcessingTime)
	}
	if s.TotalProcessingTime != 10*time.Millisecond {
		t.Errorf("Expected total 10ms, got %s", s.TotalProcessingTime)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, "", "", nil)
	if s.TotalPairs != 0 || s.AverageProcessingTime != 0 || s.Agreement != 0 {
		t.Errorf("Expected zero summary, got %+v", s)
	}

	var buf bytes.Buffer
	s.PrintSummary(&buf)
	if !strings.Contains(buf.String(), "Total Pairs: 0") {
		t.Errorf("Expected empty summary output, got:\n%s", buf.String())
	}
}

func TestPrintSummary(t *testing.T) {
	s := Summarize(testResults(), "ranking.yaml", "pairs.jsonl", []string{"encodingLevel", "recordAge"})

	var buf bytes.Buffer
	s.PrintSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"MARC RECORD RANKING SUMMARY",
		"Configuration: ranking.yaml",
		" 1. encodingLevel",
		"Record 1 preferred: 1",
		"Ties: 1",
		"Agreement: 50.00% (1/2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSaveToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := Summarize(testResults(), "ranking.yaml", "pairs.jsonl", []string{"encodingLevel", "recordAge"})

	if err := s.SaveToJSON(path); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var decoded struct {
		TotalPairs int `json:"total_pairs"`
		Results    []struct {
			ID         string `json:"id"`
			Comparison *struct {
				Raw1 []any `json:"raw1"`
			} `json:"comparison"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if decoded.TotalPairs != 4 || len(decoded.Results) != 4 {
		t.Errorf("Expected 4 pairs in output, got %d/%d", decoded.TotalPairs, len(decoded.Results))
	}
	raw := decoded.Results[0].Comparison.Raw1
	if len(raw) != 2 || raw[0] != float64(4) || raw[1] != "850506" {
		t.Errorf("Expected raw scores [4 850506], got %v", raw)
	}
}

func TestSaveToYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	s := Summarize(testResults(), "ranking.yaml", "pairs.jsonl", []string{"encodingLevel", "recordAge"})

	if err := s.SaveToYAML(path); err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if report.Config.PairCount != 4 || len(report.Results) != 4 {
		t.Errorf("Expected 4 pairs in report, got %d/%d", report.Config.PairCount, len(report.Results))
	}
	if report.Totals.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", report.Totals.Failures)
	}
	first := report.Results[0]
	if strings.Join(first.Normalized1, ",") != "1,0" {
		t.Errorf("Expected normalized1 [1 0], got %v", first.Normalized1)
	}
	if report.Results[3].Error == "" {
		t.Error("Expected error recorded for failed pair")
	}
}

func TestSaveToInvalidPath(t *testing.T) {
	s := Summarize(testResults(), "", "", nil)
	if err := s.SaveToJSON("/nonexistent/dir/results.json"); err == nil {
		t.Error("Expected error for invalid JSON path, got nil")
	}
	if err := s.SaveToYAML("/nonexistent/dir/results.yaml"); err == nil {
		t.Error("Expected error for invalid YAML path, got nil")
	}
}
