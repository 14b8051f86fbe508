package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/table"
)

// ErrDivisionByZero is returned by / and % with a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// Eval evaluates an expression against one row.
func Eval(expr ast.Expr, row table.Row) (table.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return evalLiteral(e), nil
	case *ast.ColumnExpr:
		return row.Get(e.Name)
	case *ast.BinaryExpr:
		return evalBinary(e, row)
	case *ast.UnaryExpr:
		return evalUnary(e, row)
	case *ast.FuncCallExpr:
		return evalFunc(e, row)
	case *ast.IsNullExpr:
		operand, err := Eval(e.Operand, row)
		if err != nil {
			return table.Null(), err
		}
		return table.BoolVal(operand.IsNull() != e.Negated), nil
	default:
		return table.Null(), fmt.Errorf("unknown expression type %T", expr)
	}
}

// Compile turns an expression into a RowFunc.
func Compile(expr ast.Expr) RowFunc {
	return func(r table.Row) (table.Value, error) {
		return Eval(expr, r)
	}
}

func evalLiteral(e *ast.LiteralExpr) table.Value {
	switch e.Kind {
	case "int":
		return table.IntVal(e.Int)
	case "float":
		return table.FloatVal(e.Float)
	case "string":
		return table.StrVal(e.Str)
	case "bool":
		return table.BoolVal(e.Bool)
	default:
		return table.Null()
	}
}

func evalBinary(e *ast.BinaryExpr, row table.Row) (table.Value, error) {
	left, err := Eval(e.Left, row)
	if err != nil {
		return table.Null(), err
	}

	// short-circuit so "x is not null and 1 / x > 2" never divides by null
	switch e.Op {
	case "and":
		if b, ok := left.AsBool(); ok && !b {
			return table.BoolVal(false), nil
		}
	case "or":
		if b, ok := left.AsBool(); ok && b {
			return table.BoolVal(true), nil
		}
	}

	right, err := Eval(e.Right, row)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%":
		if left.IsNull() || right.IsNull() {
			return table.Null(), nil
		}
		return Arith(e.Op, left, right)
	case "==", "!=", "<", ">", "<=", ">=":
		return evalComparison(e.Op, left, right)
	case "and", "or":
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return table.Null(), fmt.Errorf("'%s' requires boolean operands", e.Op)
		}
		if e.Op == "and" {
			return table.BoolVal(lb && rb), nil
		}
		return table.BoolVal(lb || rb), nil
	default:
		return table.Null(), fmt.Errorf("unknown operator %q", e.Op)
	}
}

// Arith applies an arithmetic operator to two non-null values. Int op Int
// stays Int, except "/" which always yields a float.
func Arith(op string, left, right table.Value) (table.Value, error) {
	if op == "+" && left.Type == table.TypeString && right.Type == table.TypeString {
		return table.StrVal(left.Str + right.Str), nil
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return table.Null(), fmt.Errorf("cannot perform %s on %v and %v", op, left.AsString(), right.AsString())
	}
	if (op == "/" || op == "%") && rf == 0 {
		return table.Null(), fmt.Errorf("%v %s %v: %w", left.AsString(), op, right.AsString(), ErrDivisionByZero)
	}

	bothInt := left.Type == table.TypeInt && right.Type == table.TypeInt
	if bothInt {
		l, r := left.Int, right.Int
		switch op {
		case "+":
			return table.IntVal(l + r), nil
		case "-":
			return table.IntVal(l - r), nil
		case "*":
			return table.IntVal(l * r), nil
		case "%":
			return table.IntVal(l % r), nil
		}
	}

	switch op {
	case "+":
		return table.FloatVal(lf + rf), nil
	case "-":
		return table.FloatVal(lf - rf), nil
	case "*":
		return table.FloatVal(lf * rf), nil
	case "/":
		return table.FloatVal(lf / rf), nil
	case "%":
		return table.FloatVal(math.Mod(lf, rf)), nil
	}
	return table.Null(), fmt.Errorf("unknown operator %q", op)
}

func evalComparison(op string, left, right table.Value) (table.Value, error) {
	// null == null is true, null == anything else is false, ordering with null is null
	if left.IsNull() || right.IsNull() {
		both := left.IsNull() && right.IsNull()
		switch op {
		case "==":
			return table.BoolVal(both), nil
		case "!=":
			return table.BoolVal(!both), nil
		default:
			return table.Null(), nil
		}
	}

	if left.Type == table.TypeString && right.Type == table.TypeString {
		return table.BoolVal(cmpResult(op, strings.Compare(left.Str, right.Str))), nil
	}

	if left.Type == table.TypeBool && right.Type == table.TypeBool {
		switch op {
		case "==":
			return table.BoolVal(left.Bool == right.Bool), nil
		case "!=":
			return table.BoolVal(left.Bool != right.Bool), nil
		default:
			return table.Null(), fmt.Errorf("cannot use %s on booleans", op)
		}
	}

	if left.IsNumeric() && right.IsNumeric() {
		return table.BoolVal(cmpResult(op, table.Compare(left, right))), nil
	}

	return table.Null(), fmt.Errorf("cannot compare %v with %v", left.AsString(), right.AsString())
}

func cmpResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func evalUnary(e *ast.UnaryExpr, row table.Row) (table.Value, error) {
	operand, err := Eval(e.Operand, row)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "not":
		if operand.IsNull() {
			return table.Null(), nil
		}
		b, ok := operand.AsBool()
		if !ok {
			return table.Null(), fmt.Errorf("'not' requires boolean operand")
		}
		return table.BoolVal(!b), nil
	case "-":
		switch operand.Type {
		case table.TypeNull:
			return table.Null(), nil
		case table.TypeInt:
			return table.IntVal(-operand.Int), nil
		case table.TypeFloat:
			return table.FloatVal(-operand.Float), nil
		default:
			return table.Null(), fmt.Errorf("cannot negate %v", operand.AsString())
		}
	default:
		return table.Null(), fmt.Errorf("unknown unary operator %q", e.Op)
	}
}
