package table

import (
	"fmt"
	"strings"
)

// Table is the core data structure: ordered named columns of equal length
// plus optional grouping keys. A Table is never modified after it is built;
// every method that changes something returns a new Table.
type Table struct {
	columns   []string
	data      map[string][]Value
	nrows     int
	groupKeys []string
}

// ColumnMapping names a column of another table and the name it takes when
// appended.
type ColumnMapping struct {
	From string
	To   string
}

// New builds a table from column-name to values data. Every listed column
// must have data and all data must have the same length.
func New(columns []string, data map[string][]Value) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("column %q: %w", c, ErrDuplicateColumn)
		}
		seen[c] = true
	}
	for name := range data {
		if !seen[name] {
			return nil, fmt.Errorf("data for column %q not in column list: %w", name, ErrUnknownColumn)
		}
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		data:    make(map[string][]Value, len(columns)),
	}
	for i, c := range columns {
		vals, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("no data for column %q: %w", c, ErrUnknownColumn)
		}
		if i == 0 {
			t.nrows = len(vals)
		} else if len(vals) != t.nrows {
			return nil, fmt.Errorf("column %q has %d values, expected %d: %w", c, len(vals), t.nrows, ErrShapeMismatch)
		}
		t.data[c] = append([]Value(nil), vals...)
	}
	return t, nil
}

// Empty creates a table with the given columns and no rows.
func Empty(columns []string) (*Table, error) {
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = nil
	}
	return New(columns, data)
}

// FromRows builds a table from row-major values. Short rows are padded
// with nulls; long rows are an error.
func FromRows(columns []string, rows [][]Value) (*Table, error) {
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = make([]Value, len(rows))
	}
	for i, r := range rows {
		if len(r) > len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns: %w", i, len(r), len(columns), ErrShapeMismatch)
		}
		for j, c := range columns {
			if j < len(r) {
				data[c][i] = r[j]
			}
		}
	}
	return New(columns, data)
}

// MustNew is like New but panics on error. Meant for fixtures.
func MustNew(columns []string, data map[string][]Value) *Table {
	t, err := New(columns, data)
	if err != nil {
		panic(err)
	}
	return t
}

// NRows returns the number of rows.
func (t *Table) NRows() int {
	return t.nrows
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]Value, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	return append([]Value(nil), vals...), nil
}

// At returns the value at a given row and column name. Out of range rows
// and unknown columns yield null.
func (t *Table) At(row int, name string) Value {
	vals, ok := t.data[name]
	if !ok || row < 0 || row >= t.nrows {
		return Null()
	}
	return vals[row]
}

// GroupKeys returns the grouping columns, empty when ungrouped.
func (t *Table) GroupKeys() []string {
	return append([]string(nil), t.groupKeys...)
}

// IsGrouped reports whether grouping keys are set.
func (t *Table) IsGrouped() bool {
	return len(t.groupKeys) > 0
}

// shallow copies the table header; column slices are shared, which is safe
// because they are never written after construction.
func (t *Table) shallow() *Table {
	data := make(map[string][]Value, len(t.data))
	for k, v := range t.data {
		data[k] = v
	}
	return &Table{
		columns:   append([]string(nil), t.columns...),
		data:      data,
		nrows:     t.nrows,
		groupKeys: append([]string(nil), t.groupKeys...),
	}
}

// WithColumn returns a table with the column added at the end, or replaced
// in place when it already exists.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(t.columns) > 0 && len(values) != t.nrows {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows: %w", name, len(values), t.nrows, ErrShapeMismatch)
	}
	result := t.shallow()
	if len(t.columns) == 0 {
		result.nrows = len(values)
	}
	if _, exists := result.data[name]; !exists {
		result.columns = append(result.columns, name)
	}
	result.data[name] = append([]Value(nil), values...)
	return result, nil
}

// SelectColumns projects the named columns in the given order. Group keys
// that are not selected are dropped from the grouping.
func (t *Table) SelectColumns(names ...string) (*Table, error) {
	data := make(map[string][]Value, len(names))
	for _, n := range names {
		vals, ok := t.data[n]
		if !ok {
			return nil, fmt.Errorf("column %q: %w", n, ErrUnknownColumn)
		}
		if _, dup := data[n]; dup {
			return nil, fmt.Errorf("column %q: %w", n, ErrDuplicateColumn)
		}
		data[n] = vals
	}
	var keys []string
	for _, k := range t.groupKeys {
		if _, ok := data[k]; ok {
			keys = append(keys, k)
		}
	}
	return &Table{
		columns:   append([]string(nil), names...),
		data:      data,
		nrows:     t.nrows,
		groupKeys: keys,
	}, nil
}

// Rename returns a table with column old called newName. Grouping keys
// follow the rename.
func (t *Table) Rename(old, newName string) (*Table, error) {
	return t.RenameColumns([]ColumnMapping{{From: old, To: newName}})
}

// RenameColumns applies all renames at once, so "a = b, b = a" swaps two
// columns. A name may be renamed only once and the resulting names must be
// unique.
func (t *Table) RenameColumns(renames []ColumnMapping) (*Table, error) {
	mapping := make(map[string]string, len(renames))
	for _, r := range renames {
		if _, ok := t.data[r.From]; !ok {
			return nil, fmt.Errorf("column %q: %w", r.From, ErrUnknownColumn)
		}
		if _, dup := mapping[r.From]; dup {
			return nil, fmt.Errorf("column %q renamed twice: %w", r.From, ErrDuplicateColumn)
		}
		mapping[r.From] = r.To
	}
	rename := func(c string) string {
		if n, ok := mapping[c]; ok {
			return n
		}
		return c
	}

	result := &Table{
		columns: make([]string, len(t.columns)),
		data:    make(map[string][]Value, len(t.columns)),
		nrows:   t.nrows,
	}
	for i, c := range t.columns {
		n := rename(c)
		if _, dup := result.data[n]; dup {
			return nil, fmt.Errorf("renaming to %q: %w", n, ErrDuplicateColumn)
		}
		result.columns[i] = n
		result.data[n] = t.data[c]
	}
	for _, k := range t.groupKeys {
		result.groupKeys = append(result.groupKeys, rename(k))
	}
	return result, nil
}

// WithGroupKeys returns the same data grouped by keys.
func (t *Table) WithGroupKeys(keys ...string) (*Table, error) {
	for _, k := range keys {
		if _, ok := t.data[k]; !ok {
			return nil, fmt.Errorf("group key %q: %w", k, ErrUnknownColumn)
		}
	}
	result := t.shallow()
	result.groupKeys = append([]string(nil), keys...)
	return result, nil
}

// Ungroup returns the same data without grouping keys.
func (t *Table) Ungroup() *Table {
	result := t.shallow()
	result.groupKeys = nil
	return result
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Rows returns a view for every row in order.
func (t *Table) Rows() []Row {
	rows := make([]Row, t.nrows)
	for i := range rows {
		rows[i] = Row{t: t, i: i}
	}
	return rows
}

// Take gathers the given row indices into a new table with the same
// columns and grouping. An index of -1 produces a row of nulls.
func (t *Table) Take(indices []int) *Table {
	result := &Table{
		columns:   append([]string(nil), t.columns...),
		data:      make(map[string][]Value, len(t.columns)),
		nrows:     len(indices),
		groupKeys: append([]string(nil), t.groupKeys...),
	}
	for _, c := range t.columns {
		result.data[c] = gather(t.data[c], indices)
	}
	return result
}

func gather(src []Value, indices []int) []Value {
	out := make([]Value, len(indices))
	for i, idx := range indices {
		if idx >= 0 {
			out[i] = src[idx]
		}
	}
	return out
}

// AppendRowsFrom adds columns of other to t. Row i of every appended column
// holds other's value at rows[i], or null when rows[i] is -1. rows must be
// as long as t.
func (t *Table) AppendRowsFrom(other *Table, rows []int, mapping []ColumnMapping) (*Table, error) {
	if len(rows) != t.nrows {
		return nil, fmt.Errorf("%d row indices for a table of %d rows: %w", len(rows), t.nrows, ErrShapeMismatch)
	}
	result := t.shallow()
	for _, m := range mapping {
		src, ok := other.data[m.From]
		if !ok {
			return nil, fmt.Errorf("column %q: %w", m.From, ErrUnknownColumn)
		}
		if _, exists := result.data[m.To]; exists {
			return nil, fmt.Errorf("column %q: %w", m.To, ErrDuplicateColumn)
		}
		for _, idx := range rows {
			if idx >= other.nrows {
				return nil, fmt.Errorf("row %d out of range for %d rows: %w", idx, other.nrows, ErrShapeMismatch)
			}
		}
		result.columns = append(result.columns, m.To)
		result.data[m.To] = gather(src, rows)
	}
	return result, nil
}

// Equal reports whether two tables have the same columns, grouping and
// values, in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.nrows != o.nrows || len(t.columns) != len(o.columns) || len(t.groupKeys) != len(o.groupKeys) {
		return false
	}
	for i := range t.columns {
		if t.columns[i] != o.columns[i] {
			return false
		}
	}
	for i := range t.groupKeys {
		if t.groupKeys[i] != o.groupKeys[i] {
			return false
		}
	}
	for _, c := range t.columns {
		a, b := t.data[c], o.data[c]
		for i := range a {
			if a[i].Type != b[i].Type || !a[i].Equal(b[i]) {
				return false
			}
		}
	}
	return true
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if t.nrows == 0 {
		return "[" + strings.Join(t.columns, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i := 0; i < t.nrows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, c := range t.columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c)
			sb.WriteString(":")
			sb.WriteString(t.data[c][i].AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
