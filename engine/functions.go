package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/dpipe/aggregate"
	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/table"
)

// scalar is a row-level function applied to already evaluated arguments.
type scalar struct {
	minArgs int
	maxArgs int // -1 for variadic
	// takesNull functions see null arguments; all others return null as
	// soon as one argument is null.
	takesNull bool
	fn        func(args []table.Value) (table.Value, error)
}

var scalars = map[string]scalar{
	"upper":    {minArgs: 1, maxArgs: 1, fn: mapString(strings.ToUpper)},
	"lower":    {minArgs: 1, maxArgs: 1, fn: mapString(strings.ToLower)},
	"trim":     {minArgs: 1, maxArgs: 1, fn: mapString(strings.TrimSpace)},
	"len":      {minArgs: 1, maxArgs: 1, fn: strLen},
	"substr":   {minArgs: 3, maxArgs: 3, fn: substr},
	"coalesce": {minArgs: 1, maxArgs: -1, takesNull: true, fn: coalesce},
	"abs":      {minArgs: 1, maxArgs: 1, fn: abs},
	"sqrt":     {minArgs: 1, maxArgs: 1, fn: sqrt},
	"round":    {minArgs: 1, maxArgs: 1, fn: mapFloat(math.Round)},
	"floor":    {minArgs: 1, maxArgs: 1, fn: mapFloat(math.Floor)},
	"ceil":     {minArgs: 1, maxArgs: 1, fn: mapFloat(math.Ceil)},
}

func evalFunc(e *ast.FuncCallExpr, row table.Row) (table.Value, error) {
	// if is lazy: only the chosen branch is evaluated.
	if e.Name == "if" {
		return evalIf(e.Args, row)
	}

	s, ok := scalars[e.Name]
	if !ok {
		if _, isAgg := aggregate.Lookup(e.Name); isAgg {
			return table.Null(), fmt.Errorf("aggregate function %q can only be used inside 'summarize'", e.Name)
		}
		return table.Null(), fmt.Errorf("unknown function %q", e.Name)
	}
	if len(e.Args) < s.minArgs || (s.maxArgs >= 0 && len(e.Args) > s.maxArgs) {
		return table.Null(), fmt.Errorf("%s() takes %s, got %d", e.Name, arity(s), len(e.Args))
	}

	args := make([]table.Value, len(e.Args))
	hasNull := false
	for i, a := range e.Args {
		v, err := Eval(a, row)
		if err != nil {
			return table.Null(), err
		}
		hasNull = hasNull || v.IsNull()
		args[i] = v
	}
	if hasNull && !s.takesNull {
		return table.Null(), nil
	}

	v, err := s.fn(args)
	if err != nil {
		return table.Null(), fmt.Errorf("%s(): %w", e.Name, err)
	}
	return v, nil
}

func arity(s scalar) string {
	switch {
	case s.maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", s.minArgs)
	case s.minArgs == 1 && s.maxArgs == 1:
		return "1 argument"
	case s.minArgs == s.maxArgs:
		return fmt.Sprintf("%d arguments", s.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", s.minArgs, s.maxArgs)
	}
}

func evalIf(args []ast.Expr, row table.Row) (table.Value, error) {
	if len(args) != 3 {
		return table.Null(), fmt.Errorf("if() takes 3 arguments (condition, then, else), got %d", len(args))
	}
	cond, err := Eval(args[0], row)
	if err != nil {
		return table.Null(), err
	}
	b, ok := cond.AsBool()
	if !ok {
		return table.Null(), fmt.Errorf("if(): condition must be boolean, got %s", cond.Type)
	}
	if b {
		return Eval(args[1], row)
	}
	return Eval(args[2], row)
}

// mapString applies f to the string form of its argument, so upper(42)
// is "42".
func mapString(f func(string) string) func([]table.Value) (table.Value, error) {
	return func(args []table.Value) (table.Value, error) {
		return table.StrVal(f(args[0].AsString())), nil
	}
}

func mapFloat(f func(float64) float64) func([]table.Value) (table.Value, error) {
	return func(args []table.Value) (table.Value, error) {
		x, err := number(args[0])
		if err != nil {
			return table.Null(), err
		}
		return table.FloatVal(f(x)), nil
	}
}

func number(v table.Value) (float64, error) {
	f, ok := v.AsFloat()
	if !ok {
		return 0, fmt.Errorf("%s value %q is not numeric", v.Type, v.AsString())
	}
	return f, nil
}

func strLen(args []table.Value) (table.Value, error) {
	return table.IntVal(int64(len([]rune(args[0].AsString())))), nil
}

// substr(s, start, length) counts in characters from a zero-based start.
func substr(args []table.Value) (table.Value, error) {
	s := []rune(args[0].AsString())
	start, err := number(args[1])
	if err != nil {
		return table.Null(), fmt.Errorf("start: %w", err)
	}
	length, err := number(args[2])
	if err != nil {
		return table.Null(), fmt.Errorf("length: %w", err)
	}

	from := min(max(int(start), 0), len(s))
	to := min(from+max(int(length), 0), len(s))
	return table.StrVal(string(s[from:to])), nil
}

func coalesce(args []table.Value) (table.Value, error) {
	for _, v := range args {
		if !v.IsNull() {
			return v, nil
		}
	}
	return table.Null(), nil
}

func abs(args []table.Value) (table.Value, error) {
	v := args[0]
	if v.Type == table.TypeInt {
		if v.Int < 0 {
			return table.IntVal(-v.Int), nil
		}
		return v, nil
	}
	x, err := number(v)
	if err != nil {
		return table.Null(), err
	}
	return table.FloatVal(math.Abs(x)), nil
}

func sqrt(args []table.Value) (table.Value, error) {
	x, err := number(args[0])
	if err != nil {
		return table.Null(), err
	}
	if x < 0 {
		return table.Null(), fmt.Errorf("negative value %v", args[0].AsString())
	}
	return table.FloatVal(math.Sqrt(x)), nil
}
