package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is a dynamically-typed cell in a table. The zero Value is null,
// which doubles as the missing marker produced by joins.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool {
	return v.Type == TypeInt || v.Type == TypeFloat
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// AsBool coerces to boolean for logical operations.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// Truthy reports whether v counts as true when used as a row predicate.
// Null, false, zero and the empty string are false.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.Int != 0
	case TypeFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case TypeString:
		return v.Str != ""
	default:
		return false
	}
}

// Key returns an encoding of v used for hashing key tuples. Two values share
// a key exactly when they are equal; an integral float encodes like the
// equal int.
func (v Value) Key() string {
	switch v.Type {
	case TypeNull:
		return "n"
	case TypeInt:
		return "i" + strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1<<63 {
			return "i" + strconv.FormatInt(int64(v.Float), 10)
		}
		return "f" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return "s" + v.Str
	case TypeBool:
		if v.Bool {
			return "bt"
		}
		return "bf"
	default:
		return "?"
	}
}

// Equal reports whether two values are the same under key equality.
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}

// TupleKey joins the keys of vals into one hashable string.
func TupleKey(vals []Value) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(v.Key())
	}
	return sb.String()
}

// Compare orders two non-null values: numbers numerically, strings
// lexically, false before true. Values of different kinds order by kind.
// Nulls sort after everything.
func Compare(a, b Value) int {
	if a.IsNull() || b.IsNull() {
		switch {
		case a.IsNull() && b.IsNull():
			return 0
		case a.IsNull():
			return 1
		default:
			return -1
		}
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	if a.Type != b.Type {
		if rank(a.Type) < rank(b.Type) {
			return -1
		}
		return 1
	}

	switch a.Type {
	case TypeString:
		return strings.Compare(a.Str, b.Str)
	case TypeBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func rank(t ValueType) int {
	switch t {
	case TypeBool:
		return 0
	case TypeInt, TypeFloat:
		return 1
	case TypeString:
		return 2
	default:
		return 3
	}
}

// FromAny converts a Go value into a Value. Unknown types are stringified.
func FromAny(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case int:
		return IntVal(int64(val))
	case int8:
		return IntVal(int64(val))
	case int16:
		return IntVal(int64(val))
	case int32:
		return IntVal(int64(val))
	case int64:
		return IntVal(val)
	case uint8:
		return IntVal(int64(val))
	case uint16:
		return IntVal(int64(val))
	case uint32:
		return IntVal(int64(val))
	case uint64:
		return IntVal(int64(val))
	case float32:
		return FloatVal(float64(val))
	case float64:
		return FloatVal(val)
	case string:
		return StrVal(val)
	case []byte:
		return StrVal(string(val))
	case bool:
		return BoolVal(val)
	default:
		return StrVal(fmt.Sprintf("%v", val))
	}
}

// Any returns the Go representation of v, nil for null.
func (v Value) Any() interface{} {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeString:
		return v.Str
	case TypeBool:
		return v.Bool
	default:
		return nil
	}
}
