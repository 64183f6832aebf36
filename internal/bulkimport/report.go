package bulkimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Report is the YAML document written for an import.
type Report struct {
	File        string      `yaml:"file"`
	GeneratedAt string      `yaml:"generatedat"`
	Imported    int         `yaml:"imported"`
	ErrorCount  int         `yaml:"errorcount"`
	Errors      []LineError `yaml:"errors"`
}

// ReportRow is one row of the Parquet error table.
type ReportRow struct {
	File    string `parquet:"file"`
	Line    *int32 `parquet:"line,optional"`
	Message string `parquet:"message"`
}

// WriteReport saves r next to the other import artifacts. The format follows
// the extension of path: .yaml/.yml or .parquet.
func WriteReport(path, csvName string, r Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return writeYAMLReport(path, csvName, r)
	case ".parquet":
		return writeParquetReport(path, csvName, r)
	default:
		return fmt.Errorf("unsupported report format: %s (supported: .yaml, .parquet)", ext)
	}
}

func writeYAMLReport(path, csvName string, r Result) error {
	report := Report{
		File:        filepath.Base(csvName),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Imported:    r.Imported,
		ErrorCount:  len(r.Errors),
		Errors:      r.Errors,
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

func writeParquetReport(path, csvName string, r Result) error {
	rows := make([]ReportRow, 0, len(r.Errors))
	for _, e := range r.Errors {
		row := ReportRow{File: filepath.Base(csvName), Message: e.Message}
		if e.Line != nil {
			line := int32(*e.Line)
			row.Line = &line
		}
		rows = append(rows, row)
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// ReadParquetReport loads the error table written by WriteReport.
func ReadParquetReport(path string) ([]ReportRow, error) {
	rows, err := parquet.ReadFile[ReportRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}
