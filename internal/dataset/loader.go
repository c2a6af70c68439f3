package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads record pairs from a JSONL or Parquet file
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every pair in the dataset
func (l *Loader) Load() ([]Pair, error) {
	return l.load(0)
}

// LoadSample loads at most limit pairs. A limit of 0 or less loads everything.
func (l *Loader) LoadSample(limit int) ([]Pair, error) {
	return l.load(limit)
}

func (l *Loader) load(limit int) ([]Pair, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	var (
		pairs []Pair
		err   error
	)
	switch ext {
	case ".parquet":
		pairs, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		pairs, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range pairs {
		if pairs[i].ID == "" {
			pairs[i].ID = fmt.Sprintf("pair-%d", i+1)
		}
	}
	return pairs, nil
}

// loadJSONL loads one pair object per line
func (l *Loader) loadJSONL(limit int) ([]Pair, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath, "sample_limit", limit)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var pairs []Pair
	scanner := bufio.NewScanner(file)

	// Records with many fields make long lines
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(pairs) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var pair Pair
		if err := json.Unmarshal(line, &pair); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		pairs = append(pairs, pair)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_pairs", len(pairs), "total_lines", lineNum)

	return pairs, nil
}

// loadParquet loads pairs from a Parquet file whose columns mirror Pair
func (l *Loader) loadParquet(limit int) ([]Pair, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath, "sample_limit", limit)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Pair](pf)
	defer reader.Close()

	var pairs []Pair
	batchNum := 0
	for limit <= 0 || len(pairs) < limit {
		// fresh buffer per batch, the reader reuses slice memory in rows
		rows := make([]Pair, 128)
		n, err := reader.Read(rows)
		if n > 0 {
			batchNum++
			if limit > 0 {
				n = min(n, limit-len(pairs))
			}
			pairs = append(pairs, rows[:n]...)
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(pairs))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_pairs", len(pairs), "total_batches", batchNum)

	return pairs, nil
}
