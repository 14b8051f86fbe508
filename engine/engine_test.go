package engine

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeghi71/dpipe/aggregate"
	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

func ints(vs ...int64) []table.Value {
	out := make([]table.Value, len(vs))
	for i, v := range vs {
		out[i] = table.IntVal(v)
	}
	return out
}

func strs(vs ...string) []table.Value {
	out := make([]table.Value, len(vs))
	for i, v := range vs {
		out[i] = table.StrVal(v)
	}
	return out
}

func cars() *table.Table {
	return table.MustNew([]string{"cyl", "hp"}, map[string][]table.Value{
		"cyl": ints(4, 4, 6, 8),
		"hp":  ints(90, 95, 110, 200),
	})
}

func column(t *testing.T, tbl *table.Table, name string) []table.Value {
	t.Helper()
	vals, err := tbl.Column(name)
	require.NoError(t, err)
	return vals
}

func run(t *testing.T, tbl *table.Table, verbs ...Verb) *table.Table {
	t.Helper()
	out, err := Pipeline(tbl, verbs...)
	require.NoError(t, err)
	return out
}

func TestGroupBySummarizeMean(t *testing.T) {
	out := run(t, cars(), GroupBy("cyl"), Summarize("hp = mean()"))

	assert.Equal(t, []string{"cyl", "hp"}, out.Columns())
	assert.False(t, out.IsGrouped())
	assert.Equal(t, ints(4, 6, 8), column(t, out, "cyl"))
	assert.Equal(t, []table.Value{
		table.FloatVal(92.5), table.FloatVal(110), table.FloatVal(200),
	}, column(t, out, "hp"))
}

func TestGroupsKeepFirstOccurrenceOrder(t *testing.T) {
	tbl := table.MustNew([]string{"k", "v"}, map[string][]table.Value{
		"k": ints(8, 4, 8, 6, 4),
		"v": ints(1, 2, 3, 4, 5),
	})
	out := run(t, tbl, GroupBy("k"), Summarize("v = sum()"))
	assert.Equal(t, ints(8, 4, 6), column(t, out, "k"))
	assert.Equal(t, ints(4, 7, 4), column(t, out, "v"))
}

func TestGroupSizesSumToRowCount(t *testing.T) {
	out := run(t, cars(), GroupBy("cyl"), Summarize("hp = size()"))

	sizes := column(t, out, "hp")
	assert.Equal(t, ints(2, 1, 1), sizes)
	var total int64
	for _, s := range sizes {
		total += s.Int
	}
	assert.Equal(t, int64(cars().NRows()), total)
}

func TestSummarizeMultipleKeys(t *testing.T) {
	tbl := table.MustNew([]string{"a", "b", "v"}, map[string][]table.Value{
		"a": strs("x", "x", "y", "x"),
		"b": ints(1, 2, 1, 1),
		"v": ints(10, 20, 30, 40),
	})
	out := run(t, tbl, GroupBy("a", "b"), Summarize("v = sum()", "n = count(v)"))
	assert.Equal(t, []string{"a", "b", "v", "n"}, out.Columns())
	assert.Equal(t, strs("x", "x", "y"), column(t, out, "a"))
	assert.Equal(t, ints(1, 2, 1), column(t, out, "b"))
	assert.Equal(t, ints(50, 20, 30), column(t, out, "v"))
	assert.Equal(t, ints(2, 1, 1), column(t, out, "n"))
}

func TestSummarizeUngroupedIsOneGroup(t *testing.T) {
	out := run(t, cars(), Summarize("hp = sum()", "top = max(hp)"))
	assert.Equal(t, []string{"hp", "top"}, out.Columns())
	assert.Equal(t, ints(495), column(t, out, "hp"))
	assert.Equal(t, ints(200), column(t, out, "top"))
}

func TestSummarizeLastWriteWins(t *testing.T) {
	out := run(t, cars(), Summarize("hp = min()", "hp = max()"))
	assert.Equal(t, []string{"hp"}, out.Columns())
	assert.Equal(t, ints(200), column(t, out, "hp"))
}

func TestSummarizeTargetNamedAfterGroupKey(t *testing.T) {
	out := run(t, cars(), GroupBy("cyl"), Summarize("cyl = size()"))
	assert.Equal(t, []string{"cyl", "cyl_size"}, out.Columns())
	assert.Equal(t, ints(4, 6, 8), column(t, out, "cyl"))
	assert.Equal(t, ints(2, 1, 1), column(t, out, "cyl_size"))
}

func TestSummarizeErrors(t *testing.T) {
	_, err := Pipeline(cars(), Summarize("hp = bogus()"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)

	_, err = Pipeline(cars(), Summarize("hp mean()"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)

	_, err = Pipeline(cars(), Summarize("mpg = mean()"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	_, err = Pipeline(cars(), GroupBy("cyl"), Summarize("hp = std()"))
	assert.ErrorIs(t, err, aggregate.ErrInsufficientSamples)

	empty, err := table.Empty([]string{"hp"})
	require.NoError(t, err)
	_, err = Pipeline(empty, Summarize("hp = mean()"))
	assert.ErrorIs(t, err, aggregate.ErrEmptyGroup)
}

func TestSummarizeWithCustomRegistry(t *testing.T) {
	reg := aggregate.NewRegistry()
	reg.Register("range", func(values []table.Value) (table.Value, error) {
		lo, err := aggregate.Min(values)
		if err != nil {
			return table.Null(), err
		}
		hi, err := aggregate.Max(values)
		if err != nil {
			return table.Null(), err
		}
		return Arith("-", hi, lo)
	})

	out := run(t, cars(), GroupBy("cyl"), SummarizeWith(reg, "spread = range(hp)"))
	assert.Equal(t, ints(5, 0, 0), column(t, out, "spread"))

	_, err := Pipeline(cars(), SummarizeWith(reg, "hp = mean()"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)
}

func TestMutateRowErrorCommitsNothing(t *testing.T) {
	tbl := table.MustNew([]string{"mpg"}, map[string][]table.Value{
		"mpg": ints(21, 0, 30),
	})

	inv := func(r table.Row) (table.Value, error) {
		mpg, err := r.Float("mpg")
		if err != nil {
			return table.Null(), err
		}
		if mpg == 0 {
			return table.Null(), errors.New("mpg is zero")
		}
		return table.FloatVal(1 / mpg), nil
	}

	out, err := Pipeline(tbl, Mutate(Assign("inv", inv)))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrRowEvaluation)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "inv", rowErr.Column)
	assert.Equal(t, 1, rowErr.Row)
	assert.False(t, tbl.HasColumn("inv"))

	_, err = Pipeline(tbl, MutateExpr("inv = 1 / mpg"))
	assert.ErrorIs(t, err, ErrRowEvaluation)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMutateSeesEarlierAssignments(t *testing.T) {
	in := cars()
	out := run(t, in, MutateExpr("double = hp * 2", "plus = double + 1", "hp = hp / 2"))

	assert.Equal(t, []string{"cyl", "hp", "double", "plus"}, out.Columns())
	assert.Equal(t, ints(180, 190, 220, 400), column(t, out, "double"))
	assert.Equal(t, ints(181, 191, 221, 401), column(t, out, "plus"))
	assert.Equal(t, []table.Value{
		table.FloatVal(45), table.FloatVal(47.5), table.FloatVal(55), table.FloatVal(100),
	}, column(t, out, "hp"))

	// the input is untouched
	assert.Equal(t, []string{"cyl", "hp"}, in.Columns())
	assert.Equal(t, ints(90, 95, 110, 200), column(t, in, "hp"))
}

func TestMutateMalformed(t *testing.T) {
	_, err := Pipeline(cars(), MutateExpr("double hp * 2"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)

	_, err = Pipeline(cars(), MutateExpr("m = mean(hp)"))
	assert.ErrorIs(t, err, ErrRowEvaluation)
}

func TestFilter(t *testing.T) {
	out := run(t, cars(), FilterExpr("hp > 90", "cyl < 8"))
	assert.Equal(t, ints(4, 6), column(t, out, "cyl"))
	assert.Equal(t, ints(95, 110), column(t, out, "hp"))

	byFunc := run(t, cars(), Filter(func(r table.Row) (table.Value, error) {
		cyl, err := r.Int("cyl")
		return table.BoolVal(cyl == 4), err
	}))
	assert.Equal(t, 2, byFunc.NRows())

	_, err := Pipeline(cars(), FilterExpr("hp / 0 > 1"))
	assert.ErrorIs(t, err, ErrRowEvaluation)

	_, err = Pipeline(cars(), FilterExpr("mpg > 1"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestFilterTruthiness(t *testing.T) {
	tbl := table.MustNew([]string{"v"}, map[string][]table.Value{
		"v": {table.IntVal(0), table.IntVal(3), table.StrVal(""), table.StrVal("x"), table.Null(), table.BoolVal(true)},
	})
	out := run(t, tbl, FilterExpr("v"))
	assert.Equal(t, []table.Value{table.IntVal(3), table.StrVal("x"), table.BoolVal(true)}, column(t, out, "v"))
}

func TestRename(t *testing.T) {
	out := run(t, cars(), GroupBy("hp"), Rename("hp = power"))
	assert.Equal(t, []string{"cyl", "power"}, out.Columns())
	assert.Equal(t, []string{"power"}, out.GroupKeys())
	assert.Equal(t, ints(90, 95, 110, 200), column(t, out, "power"))

	swapped := run(t, cars(), Rename("cyl = hp", "hp = cyl"))
	assert.Equal(t, ints(90, 95, 110, 200), column(t, swapped, "cyl"))
	assert.Equal(t, ints(4, 4, 6, 8), column(t, swapped, "hp"))

	_, err := Pipeline(cars(), Rename("x = mpg"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	_, err = Pipeline(cars(), Rename("cyl = hp"))
	assert.ErrorIs(t, err, table.ErrDuplicateColumn)

	_, err = Pipeline(cars(), Rename("cyl hp"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)
}

func TestRenameThenSelect(t *testing.T) {
	in := cars()
	renamedFirst := run(t, in, Rename("hp = horsepower"), Select("horsepower"))
	selectedFirst := run(t, in, Select("hp"), Rename("hp = horsepower"))
	assert.True(t, renamedFirst.Equal(selectedFirst))
	assert.Equal(t, column(t, in, "hp"), column(t, renamedFirst, "horsepower"))
}

func TestSelect(t *testing.T) {
	out := run(t, cars(), GroupBy("cyl"), Select("hp"))
	assert.Equal(t, []string{"hp"}, out.Columns())
	assert.False(t, out.IsGrouped())

	_, err := Pipeline(cars(), Select("hp", "mpg"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestGroupByUnknownColumn(t *testing.T) {
	_, err := Pipeline(cars(), GroupBy("gear"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestUngroup(t *testing.T) {
	out := run(t, cars(), GroupBy("cyl"), Ungroup(), Summarize("hp = size()"))
	assert.Equal(t, ints(4), column(t, out, "hp"))
}

func TestArrangeIsStable(t *testing.T) {
	tbl := table.MustNew([]string{"k", "id"}, map[string][]table.Value{
		"k":  ints(2, 1, 2, 1),
		"id": ints(0, 1, 2, 3),
	})

	asc := run(t, tbl, Arrange("k"))
	assert.Equal(t, ints(1, 3, 0, 2), column(t, asc, "id"))

	desc := run(t, tbl, Arrange("k desc"))
	assert.Equal(t, ints(0, 2, 1, 3), column(t, desc, "id"))

	multi := run(t, tbl, Arrange("k", "id desc"))
	assert.Equal(t, ints(3, 1, 2, 0), column(t, multi, "id"))
}

func TestArrangeNullsLast(t *testing.T) {
	tbl := table.MustNew([]string{"k"}, map[string][]table.Value{
		"k": {table.Null(), table.IntVal(2), table.FloatVal(1.5)},
	})

	asc := run(t, tbl, Arrange("k asc"))
	assert.Equal(t, []table.Value{table.FloatVal(1.5), table.IntVal(2), table.Null()}, column(t, asc, "k"))

	desc := run(t, tbl, Arrange("k DESC"))
	assert.Equal(t, []table.Value{table.IntVal(2), table.FloatVal(1.5), table.Null()}, column(t, desc, "k"))
}

func TestArrangeErrors(t *testing.T) {
	_, err := Pipeline(cars(), Arrange("hp sideways"))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)

	_, err = Pipeline(cars(), Arrange("mpg"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestDistinct(t *testing.T) {
	tbl := table.MustNew([]string{"a", "b"}, map[string][]table.Value{
		"a": ints(1, 1, 2, 1),
		"b": strs("x", "y", "x", "x"),
	})

	byA := run(t, tbl, Distinct("a"))
	assert.Equal(t, []string{"a"}, byA.Columns())
	assert.Equal(t, ints(1, 2), column(t, byA, "a"))

	kept := run(t, tbl, DistinctKeepAll("a"))
	assert.Equal(t, []string{"a", "b"}, kept.Columns())
	assert.Equal(t, ints(1, 2), column(t, kept, "a"))
	assert.Equal(t, strs("x", "x"), column(t, kept, "b"))

	all := run(t, tbl, Distinct())
	assert.Equal(t, ints(1, 1, 2), column(t, all, "a"))
	assert.Equal(t, strs("x", "y", "x"), column(t, all, "b"))

	_, err := Pipeline(tbl, Distinct("c"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestDistinctIsIdempotent(t *testing.T) {
	tbl := table.MustNew([]string{"a", "b"}, map[string][]table.Value{
		"a": {table.IntVal(1), table.FloatVal(1), table.Null(), table.Null(), table.IntVal(2)},
		"b": ints(1, 2, 3, 4, 5),
	})
	once := run(t, tbl, Distinct("a"))
	twice := run(t, once, Distinct("a"))
	assert.True(t, once.Equal(twice))
	assert.Equal(t, 3, once.NRows())

	onceAll := run(t, tbl, DistinctKeepAll("a"))
	twiceAll := run(t, onceAll, DistinctKeepAll("a"))
	assert.True(t, onceAll.Equal(twiceAll))
	assert.Equal(t, ints(1, 3, 5), column(t, onceAll, "b"))
}

func TestHeadTail(t *testing.T) {
	assert.Equal(t, ints(90, 95), column(t, run(t, cars(), Head(2)), "hp"))
	assert.Equal(t, ints(110, 200), column(t, run(t, cars(), Tail(2)), "hp"))
	assert.Equal(t, 4, run(t, cars(), Head(10)).NRows())
	assert.Equal(t, 4, run(t, cars(), Tail(10)).NRows())
	assert.Equal(t, 0, run(t, cars(), Head(0)).NRows())
}

func joinFixtures() (*table.Table, *table.Table) {
	left := table.MustNew([]string{"id", "name"}, map[string][]table.Value{
		"id":   ints(1, 2, 3),
		"name": strs("a", "b", "c"),
	})
	right := table.MustNew([]string{"id", "score"}, map[string][]table.Value{
		"id":    ints(3, 1, 1),
		"score": ints(30, 10, 11),
	})
	return left, right
}

func TestLeftJoin(t *testing.T) {
	left, right := joinFixtures()
	out := run(t, left, LeftJoin(right, "id"))

	assert.Equal(t, []string{"id", "name", "score"}, out.Columns())
	assert.Equal(t, ints(1, 1, 2, 3), column(t, out, "id"))
	assert.Equal(t, strs("a", "a", "b", "c"), column(t, out, "name"))
	assert.Equal(t, []table.Value{
		table.IntVal(10), table.IntVal(11), table.Null(), table.IntVal(30),
	}, column(t, out, "score"))
}

func TestLeftJoinUnmatchedRowKept(t *testing.T) {
	left, _ := joinFixtures()
	right := table.MustNew([]string{"id", "score"}, map[string][]table.Value{
		"id":    ints(9),
		"score": ints(1),
	})
	out := run(t, left, LeftJoin(right))
	assert.Equal(t, 3, out.NRows())
	for i := 0; i < out.NRows(); i++ {
		assert.True(t, out.Row(i).IsMissing("score"))
	}
}

func TestLeftJoinColumnCollision(t *testing.T) {
	left := table.MustNew([]string{"id", "v", "v_right"}, map[string][]table.Value{
		"id":      ints(1),
		"v":       strs("left"),
		"v_right": strs("taken"),
	})
	right := table.MustNew([]string{"id", "v"}, map[string][]table.Value{
		"id": ints(1),
		"v":  strs("right"),
	})
	out := run(t, left, LeftJoin(right, "id"))
	assert.Equal(t, []string{"id", "v", "v_right", "v_right_2"}, out.Columns())
	assert.Equal(t, strs("right"), column(t, out, "v_right_2"))
	assert.Equal(t, strs("left"), column(t, out, "v"))
}

func TestLeftJoinFilteredIsInnerJoin(t *testing.T) {
	left, right := joinFixtures()
	filtered := run(t, left, LeftJoin(right, "id"), FilterExpr("score is not null"))
	inner := run(t, left, InnerJoin(right, "id"))
	assert.True(t, filtered.Equal(inner), "left join minus unmatched rows:\n%s\ninner join:\n%s", filtered, inner)
}

func TestAntiJoinPartitionsLeft(t *testing.T) {
	left := table.MustNew([]string{"id", "k"}, map[string][]table.Value{
		"id": ints(0, 1, 2, 3, 4),
		"k":  ints(1, 2, 3, 2, 4),
	})
	right := table.MustNew([]string{"k"}, map[string][]table.Value{
		"k": ints(2, 4, 4),
	})

	anti := run(t, left, AntiJoin(right, "k"))
	assert.Equal(t, []string{"id", "k"}, anti.Columns())
	assert.Equal(t, ints(0, 2), column(t, anti, "id"))

	inRight := map[int64]bool{2: true, 4: true}
	matched := run(t, left, Filter(func(r table.Row) (table.Value, error) {
		k, err := r.Int("k")
		return table.BoolVal(inRight[k]), err
	}))

	var ids []int
	for _, part := range []*table.Table{anti, matched} {
		for _, v := range column(t, part, "id") {
			ids = append(ids, int(v.Int))
		}
	}
	sort.Ints(ids)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids)
}

func TestJoinNullKeysMatch(t *testing.T) {
	left := table.MustNew([]string{"k"}, map[string][]table.Value{
		"k": {table.Null(), table.IntVal(1)},
	})
	right := table.MustNew([]string{"k", "v"}, map[string][]table.Value{
		"k": {table.Null()},
		"v": strs("null key"),
	})
	out := run(t, left, LeftJoin(right))
	assert.Equal(t, []table.Value{table.StrVal("null key"), table.Null()}, column(t, out, "v"))
}

func TestJoinErrors(t *testing.T) {
	left, right := joinFixtures()

	_, err := Pipeline(left, LeftJoin(right, "name"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	_, err = Pipeline(left, AntiJoin(right, "score"))
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	other := table.MustNew([]string{"x"}, map[string][]table.Value{"x": ints(1)})
	_, err = Pipeline(left, InnerJoin(other))
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)
}

func TestPipelineReportsFailingStep(t *testing.T) {
	_, err := Pipeline(cars(), GroupBy("cyl"), Select("mpg"), Summarize("hp = mean()"))
	require.Error(t, err)

	var verbErr *VerbError
	require.ErrorAs(t, err, &verbErr)
	assert.Equal(t, "select", verbErr.Verb)
	assert.Equal(t, 1, verbErr.Step)
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "select (step 2)")
}

func TestPipelineNoVerbs(t *testing.T) {
	in := cars()
	out := run(t, in)
	assert.True(t, in.Equal(out))
}

func TestExecuteQuery(t *testing.T) {
	names := table.MustNew([]string{"cyl", "label"}, map[string][]table.Value{
		"cyl":   ints(4, 8),
		"label": strs("small", "big"),
	})
	resolve := func(name string) (*table.Table, error) {
		if name == "labels.csv" {
			return names, nil
		}
		return nil, fmt.Errorf("no such table %q", name)
	}

	q, err := parser.Parse(`cars.csv | filter { hp > 90 } | left_join labels.csv by cyl | group_by cyl label | summarize hp = max(), n = size(hp) | arrange hp desc`)
	require.NoError(t, err)

	out, err := Execute(q, cars(), resolve)
	require.NoError(t, err)
	assert.Equal(t, []string{"cyl", "label", "hp", "n"}, out.Columns())
	assert.Equal(t, ints(8, 6, 4), column(t, out, "cyl"))
	assert.Equal(t, []table.Value{table.StrVal("big"), table.Null(), table.StrVal("small")}, column(t, out, "label"))
	assert.Equal(t, ints(200, 110, 95), column(t, out, "hp"))
	assert.Equal(t, ints(1, 1, 1), column(t, out, "n"))
}

func TestExecuteResolverError(t *testing.T) {
	q, err := parser.Parse(`cars.csv | anti_join missing.csv`)
	require.NoError(t, err)

	_, err = Execute(q, cars(), func(string) (*table.Table, error) {
		return nil, errors.New("not found")
	})
	assert.ErrorContains(t, err, "missing.csv")

	_, err = Execute(q, cars(), nil)
	assert.Error(t, err)
}
