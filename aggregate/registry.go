// Package aggregate holds the named reducers available to summarize.
package aggregate

import (
	"errors"
	"sort"
	"sync"

	"github.com/razeghi71/dpipe/table"
)

var (
	// ErrEmptyGroup is returned by reducers that need at least one value.
	ErrEmptyGroup = errors.New("empty group")
	// ErrInsufficientSamples is returned by reducers that need more values
	// than they were given.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrNotNumeric is returned when a numeric reducer sees a non-numeric value.
	ErrNotNumeric = errors.New("not numeric")
)

// Func reduces a sequence of values to one scalar.
type Func func(values []table.Value) (table.Value, error)

// Registry maps aggregate names to reducers.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Default returns a new registry holding the built-in reducers.
func Default() *Registry {
	r := NewRegistry()
	r.Register("mean", Mean)
	r.Register("std", Std)
	r.Register("var", Var)
	r.Register("sum", Sum)
	r.Register("min", Min)
	r.Register("max", Max)
	r.Register("median", Median)
	r.Register("size", Size)
	r.Register("count", Size)
	r.Register("nunique", NUnique)
	r.Register("first", First)
	r.Register("last", Last)
	return r
}

// Register adds or replaces the reducer called name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the reducer called name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var standard = Default()

// Standard returns the process-wide registry used when no other is given.
func Standard() *Registry {
	return standard
}

// Register adds a reducer to the process-wide registry.
func Register(name string, fn Func) {
	standard.Register(name, fn)
}

// Lookup finds a reducer in the process-wide registry.
func Lookup(name string) (Func, bool) {
	return standard.Lookup(name)
}
