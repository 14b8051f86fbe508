package display

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/razeghi71/dpipe/table"
)

// CSVFormatter outputs rows as CSV with a header row. Nulls are empty cells.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes t as CSV.
func (c *CSVFormatter) Format(t *table.Table) error {
	csvWriter := csv.NewWriter(c.writer)

	columns := t.Columns()
	if len(columns) > 0 {
		if err := csvWriter.Write(columns); err != nil {
			return err
		}
	}

	record := make([]string, len(columns))
	for _, row := range t.Rows() {
		for j, col := range columns {
			v, err := row.Get(col)
			if err != nil {
				return err
			}
			if v.IsNull() {
				record[j] = ""
			} else {
				record[j] = v.AsString()
			}
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
