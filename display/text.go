package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/razeghi71/dpipe/table"
)

// TextFormatter prints an aligned, pipe-separated table.
type TextFormatter struct {
	writer  io.Writer
	MaxRows int
}

// NewTextFormatter creates a text formatter with no row limit.
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TextFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format writes the header, a separator line and one line per row. Group
// keys, when present, are reported after the rows.
func (f *TextFormatter) Format(t *table.Table) error {
	columns := t.Columns()
	if len(columns) == 0 {
		return nil
	}

	n := t.NRows()
	if f.MaxRows > 0 && n > f.MaxRows {
		n = f.MaxRows
	}

	// Calculate column widths
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}

	// Format all cell values
	cells := make([][]string, n)
	for i := range cells {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			cells[i][j] = t.At(i, col).AsString()
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}

	var sb strings.Builder
	headerParts := make([]string, len(columns))
	for i, col := range columns {
		headerParts[i] = padRight(col, widths[i])
	}
	writeLine(&sb, strings.Join(headerParts, " | "))

	sepParts := make([]string, len(columns))
	for i := range columns {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	writeLine(&sb, strings.Join(sepParts, "-+-"))

	for _, row := range cells {
		parts := make([]string, len(columns))
		for i := range columns {
			parts[i] = padRight(row[i], widths[i])
		}
		writeLine(&sb, strings.Join(parts, " | "))
	}

	if rest := t.NRows() - n; rest > 0 {
		writeLine(&sb, fmt.Sprintf("... %d more rows", rest))
	}
	if t.IsGrouped() {
		writeLine(&sb, "grouped by: "+strings.Join(t.GroupKeys(), ", "))
	}

	_, err := io.WriteString(f.writer, sb.String())
	return err
}

func writeLine(sb *strings.Builder, s string) {
	sb.WriteString(strings.TrimRight(s, " "))
	sb.WriteByte('\n')
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
