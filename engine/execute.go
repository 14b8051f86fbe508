package engine

import (
	"fmt"

	"github.com/razeghi71/dpipe/aggregate"
	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/table"
)

// Resolver loads the table a join source names.
type Resolver func(name string) (*table.Table, error)

// CompileQuery turns the verbs of a parsed query into a Verb list. Join sources
// are loaded through resolve.
func CompileQuery(q *ast.Query, resolve Resolver) ([]Verb, error) {
	verbs := make([]Verb, 0, len(q.Ops))
	for _, op := range q.Ops {
		v, err := compileOp(op, resolve)
		if err != nil {
			return nil, err
		}
		verbs = append(verbs, v)
	}
	return verbs, nil
}

// Execute runs the verbs of q against input.
func Execute(q *ast.Query, input *table.Table, resolve Resolver) (*table.Table, error) {
	verbs, err := CompileQuery(q, resolve)
	if err != nil {
		return nil, err
	}
	return Pipeline(input, verbs...)
}

func compileOp(op ast.Op, resolve Resolver) (Verb, error) {
	switch o := op.(type) {
	case *ast.RenameOp:
		return renamePairs(o.Pairs), nil
	case *ast.MutateOp:
		return mutateAST(o.Assignments), nil
	case *ast.FilterOp:
		return Filter(Compile(o.Expr)), nil
	case *ast.SelectOp:
		return Select(o.Columns...), nil
	case *ast.GroupByOp:
		return GroupBy(o.Columns...), nil
	case *ast.UngroupOp:
		return Ungroup(), nil
	case *ast.SummarizeOp:
		return summarizeAggs(aggregate.Standard(), o.Aggregations), nil
	case *ast.ArrangeOp:
		return arrangeKeys(o.Keys), nil
	case *ast.DistinctOp:
		if o.KeepAll {
			return DistinctKeepAll(o.Columns...), nil
		}
		return Distinct(o.Columns...), nil
	case *ast.JoinOp:
		if resolve == nil {
			return Verb{}, fmt.Errorf("%s: no resolver for %q", o.Kind, o.Right.Filename)
		}
		right, err := resolve(o.Right.Filename)
		if err != nil {
			return Verb{}, fmt.Errorf("%s %s: %w", o.Kind, o.Right.Filename, err)
		}
		switch o.Kind {
		case ast.LeftJoin:
			return LeftJoin(right, o.By...), nil
		case ast.InnerJoin:
			return InnerJoin(right, o.By...), nil
		case ast.AntiJoin:
			return AntiJoin(right, o.By...), nil
		default:
			return Verb{}, fmt.Errorf("unknown join kind %q", o.Kind)
		}
	case *ast.HeadOp:
		return Head(o.N), nil
	case *ast.TailOp:
		return Tail(o.N), nil
	default:
		return Verb{}, fmt.Errorf("unknown operation: %T", op)
	}
}
