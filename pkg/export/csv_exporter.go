package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is ordered tabular content for plan exports. Each row must line up
// with Columns; short rows are padded, long rows are truncated.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// Append adds one row to the dataset.
func (d *Dataset) Append(cells ...string) {
	d.Rows = append(d.Rows, cells)
}

func (d Dataset) normalizedRow(row []string) []string {
	if len(row) == len(d.Columns) {
		return row
	}
	out := make([]string, len(d.Columns))
	copy(out, row)
	return out
}

// CSVExporter renders a Dataset into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(data.normalizedRow(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
