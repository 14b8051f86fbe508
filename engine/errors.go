package engine

import (
	"errors"
	"fmt"
)

// ErrRowEvaluation is matched by every failure of a per-row callback.
var ErrRowEvaluation = errors.New("row evaluation failed")

// RowError reports the row and output column at which a mutate or filter
// callback failed.
type RowError struct {
	Column string // empty for filter predicates
	Row    int
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%v at row %d: %v", ErrRowEvaluation, e.Row, e.Err)
	}
	return fmt.Sprintf("%v for column %q at row %d: %v", ErrRowEvaluation, e.Column, e.Row, e.Err)
}

// Unwrap exposes both ErrRowEvaluation and the callback's own error.
func (e *RowError) Unwrap() []error {
	return []error{ErrRowEvaluation, e.Err}
}

// VerbError reports which pipeline step failed.
type VerbError struct {
	Verb string
	Step int
	Err  error
}

func (e *VerbError) Error() string {
	return fmt.Sprintf("%s (step %d): %v", e.Verb, e.Step+1, e.Err)
}

func (e *VerbError) Unwrap() error {
	return e.Err
}
