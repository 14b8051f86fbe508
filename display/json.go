package display

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/razeghi71/dpipe/table"
)

// JSONFormatter outputs one JSON object per row (JSON Lines). Keys follow
// the table's column order and nulls are written as null.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes t as JSON Lines.
func (j *JSONFormatter) Format(t *table.Table) error {
	bw := bufio.NewWriter(j.writer)
	columns := t.Columns()
	keys := make([][]byte, len(columns))
	for i, col := range columns {
		k, err := json.Marshal(col)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	for _, row := range t.Rows() {
		bw.WriteByte('{')
		for c, col := range columns {
			if c > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[c])
			bw.WriteByte(':')
			cell, err := row.Get(col)
			if err != nil {
				return err
			}
			v, err := json.Marshal(cell.Any())
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", row.Index(), col, err)
			}
			bw.Write(v)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}
