package marc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile loads a single record, detecting the format from the extension:
// .json (leader/fields object), .mrk or .txt (mnemonic), .mrc or .marc (ISO 2709)
func ReadFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	slog.Debug("Reading record", "path", path, "format", ext, "size_bytes", len(data))

	switch ext {
	case ".json":
		return DecodeJSON(data)
	case ".mrk", ".txt":
		return ParseMnemonic(string(data))
	case ".mrc", ".marc":
		return DecodeISO2709(data)
	default:
		return nil, fmt.Errorf("unsupported record format: %s (supported: .json, .mrk, .txt, .mrc, .marc)", ext)
	}
}

// DecodeJSON decodes a record in the leader/fields object shape
func DecodeJSON(data []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record JSON: %w", err)
	}
	return &record, nil
}
