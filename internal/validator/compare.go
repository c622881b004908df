package validator

import (
	"fmt"
	"strconv"

	"github.com/kestrel-data/kestrel/pkg/core"
)

// compare evaluates actual <op> expected. Numeric comparands are coerced to
// float64 first so int64 from the driver compares equal to an untyped number
// from a YAML rule file.
func compare(actual any, op core.Operator, expected any) (bool, error) {
	switch op {
	case core.OpEquals:
		return valuesEqual(actual, expected), nil
	case core.OpNotEquals:
		return !valuesEqual(actual, expected), nil
	case core.OpBetween:
		return betweenInclusive(actual, expected)
	case core.OpGreaterThan, core.OpLessThan, core.OpGreaterOrEqual, core.OpLessOrEqual:
		a, ok := toNumber(actual)
		if !ok {
			return false, fmt.Errorf("operator %s needs a numeric actual value, got %T", op, actual)
		}
		e, ok := toNumber(expected)
		if !ok {
			return false, fmt.Errorf("operator %s needs a numeric expected value, got %T", op, expected)
		}
		switch op {
		case core.OpGreaterThan:
			return a > e, nil
		case core.OpLessThan:
			return a < e, nil
		case core.OpGreaterOrEqual:
			return a >= e, nil
		default:
			return a <= e, nil
		}
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// valuesEqual compares numerically when both sides are numbers, otherwise by
// string form.
func valuesEqual(actual, expected any) bool {
	if a, ok := toNumber(actual); ok {
		if e, ok := toNumber(expected); ok {
			return a == e
		}
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

// betweenInclusive expects an ordered 2-element slice and is inclusive on
// both bounds.
func betweenInclusive(actual, expected any) (bool, error) {
	bounds, err := boundsOf(expected)
	if err != nil {
		return false, err
	}
	a, ok := toNumber(actual)
	if !ok {
		return false, fmt.Errorf("operator between needs a numeric actual value, got %T", actual)
	}
	return bounds[0] <= a && a <= bounds[1], nil
}

func boundsOf(expected any) ([2]float64, error) {
	var raw []any
	switch v := expected.(type) {
	case []any:
		raw = v
	case []float64:
		for _, f := range v {
			raw = append(raw, f)
		}
	case []int:
		for _, n := range v {
			raw = append(raw, n)
		}
	default:
		return [2]float64{}, fmt.Errorf("operator between needs a 2-element expected value, got %T", expected)
	}
	if len(raw) != 2 {
		return [2]float64{}, fmt.Errorf("operator between needs exactly 2 bounds, got %d", len(raw))
	}
	lo, ok := toNumber(raw[0])
	if !ok {
		return [2]float64{}, fmt.Errorf("non-numeric lower bound %v", raw[0])
	}
	hi, ok := toNumber(raw[1])
	if !ok {
		return [2]float64{}, fmt.Errorf("non-numeric upper bound %v", raw[1])
	}
	if lo > hi {
		return [2]float64{}, fmt.Errorf("between bounds out of order: %v > %v", raw[0], raw[1])
	}
	return [2]float64{lo, hi}, nil
}

// toNumber coerces driver and rule-file values to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// normalizeActual makes driver values JSON-friendly for the result document.
func normalizeActual(v any) any {
	if bs, ok := v.([]byte); ok {
		return string(bs)
	}
	return v
}
