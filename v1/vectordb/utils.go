package vectordb

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"
)

// normalizeOperator maps "IN", "in" and "$in" to OpIn.
func normalizeOperator(key string) Operator {
	op := strings.ToLower(strings.TrimSpace(key))
	if !strings.HasPrefix(op, "$") {
		op = "$" + op
	}
	return Operator(op)
}

// isFieldName accepts any metadata key that an OBJECT subscript can address:
// non-empty, no control characters, not an operator.
func isFieldName(s string) bool {
	if s == "" || strings.HasPrefix(s, "$") {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// asList accepts []any and any other slice kind ([]string, []int, ...).
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// normalizeScalar converts a filter operand to one of nil, bool, string,
// int64 or float64.
func normalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", x.String())
		}
		return f, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return float64(x), nil
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return x, nil
	default:
		return nil, fmt.Errorf("expects a scalar value, got %T", v)
	}
}

// valueType names the type family of a normalized scalar.
func valueType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// normalizeSet validates an $in/$nin operand: a list of strings or of numbers.
// Mixed families, booleans, nulls and nested lists are rejected.
func normalizeSet(operand any) ([]any, error) {
	items, ok := asList(operand)
	if !ok {
		return nil, fmt.Errorf("expects a list, got %T", operand)
	}
	if len(items) == 0 {
		return nil, nil
	}
	values := make([]any, 0, len(items))
	family := ""
	for i, item := range items {
		v, err := normalizeScalar(item)
		if err != nil {
			return nil, fmt.Errorf("element %d %v", i, err)
		}
		t := valueType(v)
		if t != "string" && t != "number" {
			return nil, fmt.Errorf("element %d must be a string or a number, got %s", i, t)
		}
		if family == "" {
			family = t
		} else if family != t {
			return nil, fmt.Errorf("mixed value types: %s and %s", family, t)
		}
		values = append(values, v)
	}
	return values, nil
}

// normalizeRange validates a $between operand: two numbers or two strings.
func normalizeRange(operand any) (any, any, error) {
	items, ok := asList(operand)
	if !ok || len(items) != 2 {
		return nil, nil, fmt.Errorf("expects a list of two bounds, got %v", operand)
	}
	low, err := normalizeScalar(items[0])
	if err != nil {
		return nil, nil, fmt.Errorf("lower bound %v", err)
	}
	high, err := normalizeScalar(items[1])
	if err != nil {
		return nil, nil, fmt.Errorf("upper bound %v", err)
	}
	lt, ht := valueType(low), valueType(high)
	if lt != ht || (lt != "number" && lt != "string") {
		return nil, nil, fmt.Errorf("bounds must both be numbers or both be strings, got %s and %s", lt, ht)
	}
	return low, high, nil
}
