package rankcmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/dataset"
	"github.com/lehigh-university-libraries/marcrank/internal/marc"
)

const testConfig = `features:
  - extractor: encodingLevel
    normalizer: lexical
  - extractor: localOwnerCount
    normalizer: lexical
`

// leader/17 '7' scores 2, 'u' scores null
func preferredRecord() *marc.Record {
	rec := &marc.Record{Leader: "00000cam^a22003017i^4500"}
	rec.AppendControlField("008", "850506s1983^^^^xxu|||||||||||||||||eng||")
	rec.AppendField("LOW", " ", " ", "a", "FENNI")
	return rec
}

func otherRecord() *marc.Record {
	rec := &marc.Record{Leader: "00000cam^a2200301ui^4500"}
	rec.AppendControlField("008", "870506s1983^^^^xxu|||||||||||||||||eng||")
	return rec
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRankFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ranking.yaml", testConfig)
	rec1 := writeFile(t, dir, "a.mrk", marc.FormatMnemonic(preferredRecord()))
	rec2 := writeFile(t, dir, "b.mrk", marc.FormatMnemonic(otherRecord()))

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "record 1 preferred",
			args: []string{"--config", cfg, rec1, rec2},
			want: []string{"Record 1 is preferred (score 2)"},
		},
		{
			name: "record 2 preferred",
			args: []string{"--config", cfg, rec2, rec1},
			want: []string{"Record 2 is preferred (score -2)"},
		},
		{
			name: "tie",
			args: []string{"--config", cfg, rec1, rec1},
			want: []string{"Neither record is preferred (score 0)"},
		},
		{
			name: "explain",
			args: []string{"--config", cfg, "--explain", rec1, rec2},
			want: []string{"FEATURE", "encodingLevel", "localOwnerCount", "TOTAL", "Record 1 is preferred"},
		},
		{
			name: "show",
			args: []string{"--config", cfg, "--show", rec1, rec2},
			want: []string{"Record 1 (" + rec1 + ")", "=LOW", "Record 1 is preferred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, NewRankCmd(), tt.args...)
			if err != nil {
				t.Fatalf("rank failed: %v\n%s", err, out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}

func TestRankJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ranking.yaml", testConfig)
	rec1 := writeFile(t, dir, "a.mrk", marc.FormatMnemonic(preferredRecord()))
	rec2 := writeFile(t, dir, "b.mrk", marc.FormatMnemonic(otherRecord()))

	out, err := run(t, NewRankCmd(), "--config", cfg, "--json", rec1, rec2)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	var decoded struct {
		Raw2        []any `json:"raw2"`
		Normalized1 []any `json:"normalized1"`
		Score       int   `json:"score"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, out)
	}
	if decoded.Score != 2 {
		t.Errorf("Expected score 2, got %d", decoded.Score)
	}
	if len(decoded.Raw2) != 2 || decoded.Raw2[0] != nil {
		t.Errorf("Expected raw2 [null 0], got %v", decoded.Raw2)
	}
}

func TestRankConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigEnv, writeFile(t, dir, "ranking.json",
		`{"features": [{"extractor": "localOwnerCount", "normalizer": "lexical"}]}`))
	rec1 := writeFile(t, dir, "a.mrk", marc.FormatMnemonic(preferredRecord()))
	rec2 := writeFile(t, dir, "b.mrk", marc.FormatMnemonic(otherRecord()))

	out, err := run(t, NewRankCmd(), rec1, rec2)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if !strings.Contains(out, "Record 1 is preferred (score 1)") {
		t.Errorf("Expected record 1 preferred, got:\n%s", out)
	}
}

func TestRankCatalog(t *testing.T) {
	records := map[string]*marc.Record{"a": preferredRecord(), "b": otherRecord()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/Record/"), "/Export")
		rec, ok := records[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		data, err := marc.EncodeISO2709(rec)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(data)
	}))
	defer server.Close()

	cfg := writeFile(t, t.TempDir(), "ranking.yaml", testConfig)

	out, err := run(t, NewRankCmd(), "--config", cfg, "--catalog-url", server.URL, "b", "a")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if !strings.Contains(out, "Record 2 is preferred (score -2)") {
		t.Errorf("Expected record 2 preferred, got:\n%s", out)
	}

	if _, err := run(t, NewRankCmd(), "--config", cfg, "--catalog-url", server.URL, "a", "missing"); err == nil {
		t.Error("Expected error for missing catalog record, got nil")
	}
}

func TestRankErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ranking.yaml", testConfig)
	bad := writeFile(t, dir, "bad.yaml", "features:\n  - extractor: noSuchExtractor\n")
	rec := writeFile(t, dir, "a.mrk", marc.FormatMnemonic(preferredRecord()))
	t.Setenv(ConfigEnv, "")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing config", args: []string{rec, rec}},
		{name: "unknown extractor", args: []string{"--config", bad, rec, rec}},
		{name: "missing record", args: []string{"--config", cfg, rec, filepath.Join(dir, "none.mrk")}},
		{name: "wrong argument count", args: []string{"--config", cfg, rec}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, NewRankCmd(), tt.args...); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ranking.yaml", testConfig)

	pairs := []dataset.Pair{
		{ID: "p1", Record1: *preferredRecord(), Record2: *otherRecord(), Expected: 1},
		{ID: "p2", Record1: *otherRecord(), Record2: *preferredRecord(), Expected: 1},
		{ID: "p3", Record1: *otherRecord(), Record2: *otherRecord()},
	}
	var lines []string
	for _, p := range pairs {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("json.Marshal failed: %v", err)
		}
		lines = append(lines, string(data))
	}
	pairsPath := writeFile(t, dir, "pairs.jsonl", strings.Join(lines, "\n")+"\n")
	jsonPath := filepath.Join(dir, "results.json")
	yamlPath := filepath.Join(dir, "report.yaml")

	out, err := run(t, NewBatchCmd(),
		"--config", cfg,
		"--pairs", pairsPath,
		"--concurrency", "2",
		"--output-json", jsonPath,
		"--output-yaml", yamlPath)
	if err != nil {
		t.Fatalf("batch failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"Total Pairs: 3",
		"Record 1 preferred: 1",
		"Record 2 preferred: 1",
		"Ties: 1",
		"Agreement: 50.00% (1/2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON results: %v", err)
	}
	var decoded struct {
		Results []struct {
			ID    string `json:"id"`
			Score int    `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode JSON results: %v", err)
	}
	wantScores := map[string]int{"p1": 2, "p2": -2, "p3": 0}
	for i, r := range decoded.Results {
		if r.ID != pairs[i].ID {
			t.Errorf("Result %d: expected ID %s, got %s", i, pairs[i].ID, r.ID)
		}
		if r.Score != wantScores[r.ID] {
			t.Errorf("Result %s: expected score %d, got %d", r.ID, wantScores[r.ID], r.Score)
		}
	}

	if _, err := os.Stat(yamlPath); err != nil {
		t.Errorf("Expected YAML report at %s: %v", yamlPath, err)
	}
}

func TestBatchErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ranking.yaml", testConfig)

	if _, err := run(t, NewBatchCmd(), "--config", cfg); err == nil {
		t.Error("Expected error without --pairs, got nil")
	}
	if _, err := run(t, NewBatchCmd(), "--config", cfg, "--pairs", filepath.Join(dir, "none.jsonl")); err == nil {
		t.Error("Expected error for missing dataset, got nil")
	}
	pairsPath := writeFile(t, dir, "pairs.jsonl", "{}\n")
	if _, err := run(t, NewBatchCmd(), "--config", cfg, "--pairs", pairsPath, "--concurrency", "0"); err == nil {
		t.Error("Expected error for zero concurrency, got nil")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", testConfig)
	incompatible := writeFile(t, dir, "incompatible.yaml", "features:\n  - extractor: reprintInfo\n    normalizer: lexical\n")
	empty := writeFile(t, dir, "empty.json", `{"features": []}`)

	out, err := run(t, NewValidateCmd(), good)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "OK   "+good+" (2 features)") {
		t.Errorf("Expected OK line, got:\n%s", out)
	}

	out, err = run(t, NewValidateCmd(), good, incompatible, empty)
	if err == nil {
		t.Fatal("Expected error for invalid configurations, got nil")
	}
	if !strings.Contains(err.Error(), "2 of 3") {
		t.Errorf("Expected 2 of 3 invalid, got %v", err)
	}
	if strings.Count(out, "FAIL") != 2 {
		t.Errorf("Expected 2 FAIL lines, got:\n%s", out)
	}
}

func TestList(t *testing.T) {
	out, err := run(t, NewListCmd())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{
		"EXTRACTOR",
		"encodingLevel",
		"latestChange(userExpr?)",
		"fieldCount(tag, codes?)",
		"NORMALIZER",
		"lexical",
		"reprint",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
