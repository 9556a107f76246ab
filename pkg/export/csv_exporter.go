package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoColumns is returned when a dataset has no headers to write.
var ErrNoColumns = errors.New("export: dataset has no columns")

// CSVExporter writes datasets as RFC 4180 CSV.
type CSVExporter struct {
	// BOM prefixes output with a UTF-8 byte order mark for spreadsheet tools.
	BOM bool
}

// NewCSVExporter builds a CSV exporter without a byte order mark.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	return e.RenderSections([]Section{{Data: data}}, DocumentOptions{})
}

// RenderSections writes a single header row followed by every section's rows.
// With NewPagePerSection each section after the first is preceded by a blank
// row and a one-cell title row naming it.
func (e *CSVExporter) RenderSections(sections []Section, opts DocumentOptions) ([]byte, error) {
	merged := Flatten(sections)
	if len(merged.Headers) == 0 {
		return nil, ErrNoColumns
	}
	var buf bytes.Buffer
	if e.BOM {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	if err := w.Write(merged.Headers); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, section := range sections {
		if opts.NewPagePerSection && i > 0 && section.Title != "" {
			if err := writeSectionBreak(w, section.Title); err != nil {
				return nil, err
			}
		}
		if err := writeRows(w, merged.Headers, section.Data.Rows); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSectionBreak(w *csv.Writer, title string) error {
	if err := w.Write([]string{""}); err != nil {
		return fmt.Errorf("csv section break: %w", err)
	}
	if err := w.Write([]string{title}); err != nil {
		return fmt.Errorf("csv section title: %w", err)
	}
	return nil
}

func writeRows(w *csv.Writer, headers []string, rows []map[string]string) error {
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	return nil
}
