package engine

import (
	"fmt"
	"slices"

	"github.com/razeghi71/dpipe/aggregate"
	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

// keyIndex reads the key tuple of any row over a fixed set of columns.
type keyIndex struct {
	cols [][]table.Value
}

func newKeyIndex(t *table.Table, names []string) (*keyIndex, error) {
	cols := make([][]table.Value, len(names))
	for i, n := range names {
		vals, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}
	return &keyIndex{cols: cols}, nil
}

func (k *keyIndex) values(row int) []table.Value {
	out := make([]table.Value, len(k.cols))
	for i, c := range k.cols {
		out[i] = c[row]
	}
	return out
}

func (k *keyIndex) key(row int) string {
	return table.TupleKey(k.values(row))
}

// group is the ordered set of rows sharing one key tuple.
type group struct {
	key  []table.Value
	rows []int
}

// partition splits t's rows by the values of names, in first-occurrence
// order of each key tuple.
func partition(t *table.Table, names []string) ([]*group, error) {
	idx, err := newKeyIndex(t, names)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*group)
	var groups []*group
	for i := 0; i < t.NRows(); i++ {
		k := idx.key(i)
		g, ok := byKey[k]
		if !ok {
			g = &group{key: idx.values(i)}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}
	return groups, nil
}

// Summarize reduces each group to one row using aggregations written as
// "target = fn()" or "target = fn(source)". Functions come from the
// default aggregate registry.
func Summarize(exprs ...string) Verb {
	return SummarizeWith(aggregate.Standard(), exprs...)
}

// SummarizeWith is Summarize with an explicit registry.
func SummarizeWith(reg *aggregate.Registry, exprs ...string) Verb {
	aggs := make([]ast.Aggregation, 0, len(exprs))
	for _, s := range exprs {
		a, err := parser.ParseAggregation(s)
		if err != nil {
			return failed("summarize", err)
		}
		aggs = append(aggs, a)
	}
	return summarizeAggs(reg, aggs)
}

func summarizeAggs(reg *aggregate.Registry, aggs []ast.Aggregation) Verb {
	fns := make([]aggregate.Func, len(aggs))
	for i, a := range aggs {
		fn, ok := reg.Lookup(a.Func)
		if !ok {
			return failed("summarize", fmt.Errorf("unknown aggregate function %q in %q: %w",
				a.Func, a.Target, parser.ErrMalformedExpression))
		}
		fns[i] = fn
	}

	return newVerb("summarize", func(t *table.Table) (*table.Table, error) {
		keys := t.GroupKeys()
		groups, err := partition(t, keys)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 && len(groups) == 0 {
			// Whole table is one implicit group, even when empty.
			groups = []*group{{}}
		}

		result, err := groupKeyTable(keys, groups)
		if err != nil {
			return nil, err
		}
		for i, a := range aggs {
			name := a.Target
			if slices.Contains(keys, name) {
				// Keys are kept as is; the aggregate moves to a suffixed column.
				name = a.Target + "_" + a.Func
			}
			src, err := t.Column(a.Source)
			if err != nil {
				return nil, err
			}
			out := make([]table.Value, len(groups))
			for gi, g := range groups {
				vals := make([]table.Value, len(g.rows))
				for j, r := range g.rows {
					vals[j] = src[r]
				}
				v, err := fns[i](vals)
				if err != nil {
					return nil, fmt.Errorf("%s = %s(%s): %w", a.Target, a.Func, a.Source, err)
				}
				out[gi] = v
			}
			result, err = result.WithColumn(name, out)
			if err != nil {
				return nil, err
			}
		}
		return result, nil
	})
}

func groupKeyTable(keys []string, groups []*group) (*table.Table, error) {
	data := make(map[string][]table.Value, len(keys))
	for ki, k := range keys {
		vals := make([]table.Value, len(groups))
		for gi, g := range groups {
			vals[gi] = g.key[ki]
		}
		data[k] = vals
	}
	return table.New(keys, data)
}
