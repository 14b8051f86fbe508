package engine

import (
	"fmt"

	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

// LeftJoin keeps every row of the input. A row with matches in right is
// repeated once per match, in right's order, with right's non-key columns
// appended; a row without matches gets nulls in those columns.
//
// A right column whose name is already taken is renamed with a "_right"
// suffix, then "_right_2", "_right_3" and so on until it is free.
func LeftJoin(right *table.Table, by ...string) Verb {
	return newVerb("left_join", func(left *table.Table) (*table.Table, error) {
		return hashJoin(left, right, by, true)
	})
}

// InnerJoin is LeftJoin without the unmatched rows.
func InnerJoin(right *table.Table, by ...string) Verb {
	return newVerb("inner_join", func(left *table.Table) (*table.Table, error) {
		return hashJoin(left, right, by, false)
	})
}

// AntiJoin keeps the rows of the input whose key has no match in right.
func AntiJoin(right *table.Table, by ...string) Verb {
	return newVerb("anti_join", func(left *table.Table) (*table.Table, error) {
		keys, err := joinKeys(left, right, by)
		if err != nil {
			return nil, err
		}
		index, leftIdx, err := buildIndex(left, right, keys)
		if err != nil {
			return nil, err
		}
		keep := make([]int, 0, left.NRows())
		for i := 0; i < left.NRows(); i++ {
			if _, ok := index[leftIdx.key(i)]; !ok {
				keep = append(keep, i)
			}
		}
		return left.Take(keep), nil
	})
}

func hashJoin(left, right *table.Table, by []string, keepUnmatched bool) (*table.Table, error) {
	keys, err := joinKeys(left, right, by)
	if err != nil {
		return nil, err
	}
	index, leftIdx, err := buildIndex(left, right, keys)
	if err != nil {
		return nil, err
	}

	var leftRows, rightRows []int
	for i := 0; i < left.NRows(); i++ {
		matches, ok := index[leftIdx.key(i)]
		if !ok {
			if keepUnmatched {
				leftRows = append(leftRows, i)
				rightRows = append(rightRows, -1)
			}
			continue
		}
		for _, r := range matches {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, r)
		}
	}

	return left.Take(leftRows).AppendRowsFrom(right, rightRows, rightColumns(left, right, keys))
}

// joinKeys resolves the join columns, defaulting to the columns both
// tables share.
func joinKeys(left, right *table.Table, by []string) ([]string, error) {
	if len(by) > 0 {
		for _, k := range by {
			if !left.HasColumn(k) {
				return nil, fmt.Errorf("join key %q missing from left table: %w", k, table.ErrUnknownColumn)
			}
			if !right.HasColumn(k) {
				return nil, fmt.Errorf("join key %q missing from right table: %w", k, table.ErrUnknownColumn)
			}
		}
		return by, nil
	}
	var shared []string
	for _, c := range left.Columns() {
		if right.HasColumn(c) {
			shared = append(shared, c)
		}
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("no shared columns to join on: %w", parser.ErrMalformedExpression)
	}
	return shared, nil
}

// buildIndex maps each key tuple in right to its rows in order.
func buildIndex(left, right *table.Table, keys []string) (map[string][]int, *keyIndex, error) {
	rightIdx, err := newKeyIndex(right, keys)
	if err != nil {
		return nil, nil, err
	}
	leftIdx, err := newKeyIndex(left, keys)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[string][]int, right.NRows())
	for i := 0; i < right.NRows(); i++ {
		k := rightIdx.key(i)
		index[k] = append(index[k], i)
	}
	return index, leftIdx, nil
}

func rightColumns(left, right *table.Table, keys []string) []table.ColumnMapping {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	taken := make(map[string]bool)
	for _, c := range left.Columns() {
		taken[c] = true
	}

	var mapping []table.ColumnMapping
	for _, c := range right.Columns() {
		if isKey[c] {
			continue
		}
		name := c
		if taken[name] {
			name = c + "_right"
			for n := 2; taken[name]; n++ {
				name = fmt.Sprintf("%s_right_%d", c, n)
			}
		}
		taken[name] = true
		mapping = append(mapping, table.ColumnMapping{From: c, To: name})
	}
	return mapping
}
