package engine

import (
	"fmt"
	"sort"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

// Rename renames columns given as "old = new". All pairs apply at once.
func Rename(exprs ...string) Verb {
	pairs := make([]ast.RenamePair, 0, len(exprs))
	for _, s := range exprs {
		p, err := parser.ParseRename(s)
		if err != nil {
			return failed("rename", err)
		}
		pairs = append(pairs, p)
	}
	return renamePairs(pairs)
}

func renamePairs(pairs []ast.RenamePair) Verb {
	return newVerb("rename", func(t *table.Table) (*table.Table, error) {
		mapping := make([]table.ColumnMapping, len(pairs))
		for i, p := range pairs {
			mapping[i] = table.ColumnMapping{From: p.Old, To: p.New}
		}
		return t.RenameColumns(mapping)
	})
}

// Select projects the named columns in the given order.
func Select(names ...string) Verb {
	return newVerb("select", func(t *table.Table) (*table.Table, error) {
		return t.SelectColumns(names...)
	})
}

// GroupBy marks names as the grouping keys for a later Summarize.
func GroupBy(names ...string) Verb {
	return newVerb("group_by", func(t *table.Table) (*table.Table, error) {
		return t.WithGroupKeys(names...)
	})
}

// Ungroup clears the grouping keys.
func Ungroup() Verb {
	return newVerb("ungroup", func(t *table.Table) (*table.Table, error) {
		return t.Ungroup(), nil
	})
}

// Arrange sorts rows by keys written as "name [asc|desc]". The sort is
// stable and nulls sort last in either direction.
func Arrange(exprs ...string) Verb {
	keys := make([]ast.SortKey, 0, len(exprs))
	for _, s := range exprs {
		k, err := parser.ParseSortKey(s)
		if err != nil {
			return failed("arrange", err)
		}
		keys = append(keys, k)
	}
	return arrangeKeys(keys)
}

func arrangeKeys(keys []ast.SortKey) Verb {
	return newVerb("arrange", func(t *table.Table) (*table.Table, error) {
		cols := make([][]table.Value, len(keys))
		for i, k := range keys {
			vals, err := t.Column(k.Column)
			if err != nil {
				return nil, err
			}
			cols[i] = vals
		}

		order := make([]int, t.NRows())
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := order[a], order[b]
			for i, k := range keys {
				if c := compareKey(cols[i][ra], cols[i][rb], k.Desc); c != 0 {
					return c < 0
				}
			}
			return false
		})
		return t.Take(order), nil
	})
}

func compareKey(a, b table.Value, desc bool) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	}
	c := table.Compare(a, b)
	if desc {
		return -c
	}
	return c
}

// Distinct keeps the first row for each distinct tuple of names and only
// the named columns. With no names every column is compared and kept.
func Distinct(names ...string) Verb {
	return distinct(names, false)
}

// DistinctKeepAll is Distinct that keeps every column of the surviving rows.
func DistinctKeepAll(names ...string) Verb {
	return distinct(names, true)
}

func distinct(names []string, keepAll bool) Verb {
	return newVerb("distinct", func(t *table.Table) (*table.Table, error) {
		cols := names
		if len(cols) == 0 {
			cols = t.Columns()
		}
		idx, err := newKeyIndex(t, cols)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, t.NRows())
		keep := make([]int, 0, t.NRows())
		for i := 0; i < t.NRows(); i++ {
			k := idx.key(i)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keep = append(keep, i)
		}
		result := t.Take(keep)
		if keepAll || len(names) == 0 {
			return result, nil
		}
		return result.SelectColumns(names...)
	})
}

// Head keeps the first n rows.
func Head(n int) Verb {
	return newVerb("head", func(t *table.Table) (*table.Table, error) {
		if n < 0 {
			return nil, fmt.Errorf("negative row count %d", n)
		}
		return t.Take(span(0, min(n, t.NRows()))), nil
	})
}

// Tail keeps the last n rows.
func Tail(n int) Verb {
	return newVerb("tail", func(t *table.Table) (*table.Table, error) {
		if n < 0 {
			return nil, fmt.Errorf("negative row count %d", n)
		}
		return t.Take(span(max(0, t.NRows()-n), t.NRows())), nil
	})
}

func span(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
