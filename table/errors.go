package table

import "errors"

var (
	// ErrUnknownColumn is returned when a column name is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrShapeMismatch is returned when a column length disagrees with the row count.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrDuplicateColumn is returned when a column name would appear twice.
	ErrDuplicateColumn = errors.New("duplicate column")
)
