package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/razeghi71/dpipe/table"
)

// floats converts values for a numeric reducer. hasNull is set when any
// value is missing, in which case the reducer's result is null.
func floats(name string, values []table.Value) (out []float64, allInt bool, hasNull bool, err error) {
	out = make([]float64, 0, len(values))
	allInt = true
	for _, v := range values {
		if v.IsNull() {
			hasNull = true
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return nil, false, false, fmt.Errorf("%s: %s value %q: %w", name, v.Type, v.AsString(), ErrNotNumeric)
		}
		if v.Type != table.TypeInt {
			allInt = false
		}
		out = append(out, f)
	}
	return out, allInt, hasNull, nil
}

// Mean is the arithmetic mean.
func Mean(values []table.Value) (table.Value, error) {
	if len(values) == 0 {
		return table.Null(), fmt.Errorf("mean: %w", ErrEmptyGroup)
	}
	fs, _, hasNull, err := floats("mean", values)
	if err != nil || hasNull {
		return table.Null(), err
	}
	var sum float64
	for _, f := range fs {
		sum += f
	}
	return table.FloatVal(sum / float64(len(fs))), nil
}

// Var is the sample variance (ddof 1).
func Var(values []table.Value) (table.Value, error) {
	v, ok, err := variance("var", values)
	if err != nil || !ok {
		return table.Null(), err
	}
	return table.FloatVal(v), nil
}

// Std is the sample standard deviation (ddof 1).
func Std(values []table.Value) (table.Value, error) {
	v, ok, err := variance("std", values)
	if err != nil || !ok {
		return table.Null(), err
	}
	return table.FloatVal(math.Sqrt(v)), nil
}

func variance(name string, values []table.Value) (float64, bool, error) {
	switch len(values) {
	case 0:
		return 0, false, fmt.Errorf("%s: %w", name, ErrEmptyGroup)
	case 1:
		return 0, false, fmt.Errorf("%s: need at least 2 values, got 1: %w", name, ErrInsufficientSamples)
	}
	fs, _, hasNull, err := floats(name, values)
	if err != nil || hasNull {
		return 0, false, err
	}
	var mean float64
	for _, f := range fs {
		mean += f
	}
	mean /= float64(len(fs))
	var ss float64
	for _, f := range fs {
		d := f - mean
		ss += d * d
	}
	return ss / float64(len(fs)-1), true, nil
}

// Sum adds the values. The sum of no values is 0; all-int input sums to an int.
func Sum(values []table.Value) (table.Value, error) {
	fs, allInt, hasNull, err := floats("sum", values)
	if err != nil || hasNull {
		return table.Null(), err
	}
	if allInt {
		var total int64
		for _, v := range values {
			total += v.Int
		}
		return table.IntVal(total), nil
	}
	var total float64
	for _, f := range fs {
		total += f
	}
	return table.FloatVal(total), nil
}

// Min returns the smallest value. Strings order lexically.
func Min(values []table.Value) (table.Value, error) {
	return extreme("min", values, -1)
}

// Max returns the largest value. Strings order lexically.
func Max(values []table.Value) (table.Value, error) {
	return extreme("max", values, 1)
}

func extreme(name string, values []table.Value, want int) (table.Value, error) {
	if len(values) == 0 {
		return table.Null(), fmt.Errorf("%s: %w", name, ErrEmptyGroup)
	}
	best := values[0]
	for _, v := range values {
		if v.IsNull() {
			return table.Null(), nil
		}
		if v.IsNumeric() != best.IsNumeric() || (!v.IsNumeric() && v.Type != best.Type) {
			return table.Null(), fmt.Errorf("%s: cannot compare %s with %s: %w", name, best.Type, v.Type, ErrNotNumeric)
		}
		if table.Compare(v, best) == want {
			best = v
		}
	}
	return best, nil
}

// Median is the middle value, or the mean of the two middle values.
func Median(values []table.Value) (table.Value, error) {
	if len(values) == 0 {
		return table.Null(), fmt.Errorf("median: %w", ErrEmptyGroup)
	}
	fs, _, hasNull, err := floats("median", values)
	if err != nil || hasNull {
		return table.Null(), err
	}
	sort.Float64s(fs)
	mid := len(fs) / 2
	if len(fs)%2 == 1 {
		return table.FloatVal(fs[mid]), nil
	}
	return table.FloatVal((fs[mid-1] + fs[mid]) / 2), nil
}

// Size counts the values, whatever their type.
func Size(values []table.Value) (table.Value, error) {
	return table.IntVal(int64(len(values))), nil
}

// NUnique counts distinct non-null values.
func NUnique(values []table.Value) (table.Value, error) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !v.IsNull() {
			seen[v.Key()] = true
		}
	}
	return table.IntVal(int64(len(seen))), nil
}

// First returns the first value.
func First(values []table.Value) (table.Value, error) {
	if len(values) == 0 {
		return table.Null(), fmt.Errorf("first: %w", ErrEmptyGroup)
	}
	return values[0], nil
}

// Last returns the last value.
func Last(values []table.Value) (table.Value, error) {
	if len(values) == 0 {
		return table.Null(), fmt.Errorf("last: %w", ErrEmptyGroup)
	}
	return values[len(values)-1], nil
}
