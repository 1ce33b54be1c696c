// Package export serializes rendered results for download.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/present"
)

// FileName is the name of the downloaded flat file.
const FileName = "experiment_results.csv"

// Write serializes tables in order. Each table starts with a "# <title>"
// line, then its header and data rows with every cell quoted. Tables are
// separated by a blank line and the output has no trailing newline.
func Write(w io.Writer, tables []present.Table) error {
	lines := make([]string, 0, len(tables)*4)
	for i, t := range tables {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "# "+t.Title)
		for _, record := range t.Records() {
			lines = append(lines, encodeRecord(record))
		}
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Payload returns the flat file for tables.
func Payload(tables []present.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, tables); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Download writes the flat file to <dir>/experiment_results.csv and returns
// its path.
func Download(dir string, tables []present.Table) (string, error) {
	payload, err := Payload(tables)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return path, nil
}

// WriteJSON dumps the raw analysis result.
func WriteJSON(w io.Writer, result *analysis.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func encodeRecord(record []string) string {
	cells := make([]string, len(record))
	for i, cell := range record {
		cells[i] = `"` + strings.ReplaceAll(strings.TrimSpace(cell), `"`, `""`) + `"`
	}
	return strings.Join(cells, ",")
}
