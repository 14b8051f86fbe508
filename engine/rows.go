package engine

import (
	"fmt"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

// RowFunc computes a value from one row.
type RowFunc func(r table.Row) (table.Value, error)

// Assignment binds an output column to a RowFunc.
type Assignment struct {
	Name string
	Fn   RowFunc
}

// Assign is shorthand for an Assignment.
func Assign(name string, fn RowFunc) Assignment {
	return Assignment{Name: name, Fn: fn}
}

// Mutate adds or replaces columns. Assignments run in order and each one
// sees the columns produced by the ones before it.
func Mutate(assignments ...Assignment) Verb {
	return newVerb("mutate", func(t *table.Table) (*table.Table, error) {
		current := t
		for _, a := range assignments {
			vals, err := evalColumn(current, a.Name, a.Fn)
			if err != nil {
				return nil, err
			}
			current, err = current.WithColumn(a.Name, vals)
			if err != nil {
				return nil, err
			}
		}
		return current, nil
	})
}

// MutateExpr is Mutate with assignments written as "name = <expr>".
func MutateExpr(exprs ...string) Verb {
	assignments := make([]ast.Assignment, 0, len(exprs))
	for _, s := range exprs {
		a, err := parser.ParseAssignment(s)
		if err != nil {
			return failed("mutate", err)
		}
		assignments = append(assignments, a)
	}
	return mutateAST(assignments)
}

func mutateAST(assignments []ast.Assignment) Verb {
	compiled := make([]Assignment, len(assignments))
	for i, a := range assignments {
		compiled[i] = Assign(a.Column, Compile(a.Expr))
	}
	return Mutate(compiled...)
}

// Filter keeps the rows for which every predicate is truthy.
func Filter(predicates ...RowFunc) Verb {
	return newVerb("filter", func(t *table.Table) (*table.Table, error) {
		keep := make([]int, 0, t.NRows())
		for i := 0; i < t.NRows(); i++ {
			ok, err := allTruthy(t.Row(i), predicates)
			if err != nil {
				return nil, err
			}
			if ok {
				keep = append(keep, i)
			}
		}
		return t.Take(keep), nil
	})
}

// FilterExpr is Filter with predicates written as expressions.
func FilterExpr(exprs ...string) Verb {
	preds := make([]RowFunc, 0, len(exprs))
	for _, s := range exprs {
		e, err := parser.ParseExpr(s)
		if err != nil {
			return failed("filter", err)
		}
		preds = append(preds, Compile(e))
	}
	return Filter(preds...)
}

func allTruthy(r table.Row, predicates []RowFunc) (bool, error) {
	for _, p := range predicates {
		v, err := p(r)
		if err != nil {
			return false, &RowError{Row: r.Index(), Err: err}
		}
		if !v.Truthy() {
			return false, nil
		}
	}
	return true, nil
}

func evalColumn(t *table.Table, name string, fn RowFunc) ([]table.Value, error) {
	if fn == nil {
		return nil, fmt.Errorf("no function given for column %q", name)
	}
	vals := make([]table.Value, t.NRows())
	for i := range vals {
		v, err := fn(t.Row(i))
		if err != nil {
			return nil, &RowError{Column: name, Row: i, Err: err}
		}
		vals[i] = v
	}
	return vals, nil
}
