package table

import "fmt"

// Row is a read-only view of one record of a Table.
type Row struct {
	t *Table
	i int
}

// Index returns the row's position in its table.
func (r Row) Index() int {
	return r.i
}

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, error) {
	vals, ok := r.t.data[name]
	if !ok {
		return Null(), fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	return vals[r.i], nil
}

// Float returns the named column as a float64.
func (r Row) Float(name string) (float64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("column %q: %s value %q is not numeric", name, v.Type, v.AsString())
	}
	return f, nil
}

// Int returns the named column as an int64. Floats are truncated.
func (r Row) Int(name string) (int64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	switch v.Type {
	case TypeInt:
		return v.Int, nil
	case TypeFloat:
		return int64(v.Float), nil
	}
	return 0, fmt.Errorf("column %q: %s value %q is not numeric", name, v.Type, v.AsString())
}

// Str returns the named column's string representation.
func (r Row) Str(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// Bool returns the named column as a bool.
func (r Row) Bool(name string) (bool, error) {
	v, err := r.Get(name)
	if err != nil {
		return false, err
	}
	if v.Type != TypeBool {
		return false, fmt.Errorf("column %q: %s value %q is not a bool", name, v.Type, v.AsString())
	}
	return v.Bool, nil
}

// IsMissing reports whether the named column holds null. Unknown columns
// count as missing.
func (r Row) IsMissing(name string) bool {
	v, err := r.Get(name)
	return err != nil || v.IsNull()
}

// Columns returns the column names visible through the row.
func (r Row) Columns() []string {
	return r.t.Columns()
}
