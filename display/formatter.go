// Package display renders tables for the command line.
package display

import (
	"fmt"
	"io"

	"github.com/razeghi71/dpipe/table"
)

// Formatter writes a table to an output.
type Formatter interface {
	Format(t *table.Table) error
	SetOutput(w io.Writer)
}

// Formats lists the names New accepts.
var Formats = []string{"table", "csv", "json"}

// New returns the formatter called format writing to w. maxRows limits the
// rows the text formatter prints; 0 means no limit.
func New(format string, w io.Writer, maxRows int) (Formatter, error) {
	switch format {
	case "table", "":
		return &TextFormatter{writer: w, MaxRows: maxRows}, nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
