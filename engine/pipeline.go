// Package engine applies pipeline verbs to tables.
//
// Every verb is a pure function from a *table.Table to a new *table.Table;
// inputs are never modified, so intermediate tables stay valid after they
// have been passed on.
package engine

import (
	"github.com/razeghi71/dpipe/table"
)

// Verb is one pipeline stage.
type Verb struct {
	name  string
	apply func(*table.Table) (*table.Table, error)
}

func newVerb(name string, apply func(*table.Table) (*table.Table, error)) Verb {
	return Verb{name: name, apply: apply}
}

// failed is a verb whose arguments could not be parsed; it reports err
// when applied.
func failed(name string, err error) Verb {
	return newVerb(name, func(*table.Table) (*table.Table, error) {
		return nil, err
	})
}

// Name returns the verb's name, e.g. "summarize".
func (v Verb) Name() string {
	return v.name
}

// Apply runs the verb on t.
func (v Verb) Apply(t *table.Table) (*table.Table, error) {
	return v.apply(t)
}

// Pipeline applies verbs to t in order. The first failure aborts the
// pipeline and is returned as a *VerbError.
func Pipeline(t *table.Table, verbs ...Verb) (*table.Table, error) {
	current := t
	for i, v := range verbs {
		next, err := v.Apply(current)
		if err != nil {
			return nil, &VerbError{Verb: v.name, Step: i, Err: err}
		}
		current = next
	}
	return current, nil
}
