package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders documents into CSV bytes. Fields become two-column
// rows and tables are separated by a blank record.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("csv requires at least one table")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if doc.Title != "" {
		if err := writer.Write([]string{doc.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
	}
	if err := writeFields(writer, doc.Fields); err != nil {
		return nil, err
	}

	for _, table := range doc.Tables {
		if len(table.Headers) == 0 {
			return nil, fmt.Errorf("csv table %q has no headers", table.Title)
		}
		if err := writer.Write([]string{}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		if table.Title != "" {
			if err := writer.Write([]string{table.Title}); err != nil {
				return nil, fmt.Errorf("write csv table title: %w", err)
			}
		}
		if err := writer.Write(table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range table.Rows {
			if len(row) != len(table.Headers) {
				return nil, fmt.Errorf("csv table %q: row has %d cells, want %d", table.Title, len(row), len(table.Headers))
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	if len(doc.Footer) > 0 {
		if err := writer.Write([]string{}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		if err := writeFields(writer, doc.Footer); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(writer *csv.Writer, fields []Field) error {
	for _, field := range fields {
		if err := writer.Write([]string{field.Label, field.Value}); err != nil {
			return fmt.Errorf("write csv field: %w", err)
		}
	}
	return nil
}
