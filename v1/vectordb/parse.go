package vectordb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseOption configures ParseFilter.
type ParseOption func(*parseOptions)

type parseOptions struct {
	allowed map[string]struct{}
}

// WithAllowedFields restricts filters to the declared metadata fields.
// Fields outside the set are rejected with ErrInvalidFilter.
func WithAllowedFields(fields ...string) ParseOption {
	return func(o *parseOptions) {
		if o.allowed == nil {
			o.allowed = make(map[string]struct{}, len(fields))
		}
		for _, f := range fields {
			o.allowed[f] = struct{}{}
		}
	}
}

// ParseFilter builds a Filter from its mapping form.
//
// Keys are metadata field names or one of $and, $or, $not. A field maps to a
// literal (implicit $eq) or to a single-key map {operator: operand}. Operator
// names are case-insensitive and the leading "$" is optional.
//
// An empty or nil expression returns a nil Filter, which matches everything.
//
// Example:
//
//	f, err := vectordb.ParseFilter(map[string]any{
//	    "$or": []any{
//	        map[string]any{"page": map[string]any{"$gte": 10}},
//	        map[string]any{"source": map[string]any{"$in": []any{"a.pdf", "b.pdf"}}},
//	    },
//	})
func ParseFilter(expr map[string]any, opts ...ParseOption) (Filter, error) {
	o := &parseOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if len(expr) == 0 {
		return nil, nil
	}
	return o.parseExpression(expr)
}

// ParseFilterJSON parses a JSON document into a Filter.
// Numbers keep their integer or floating point nature.
func ParseFilterJSON(data []byte, opts ...ParseOption) (Filter, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, invalidFilter("malformed JSON: %v", err)
	}
	expr, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidFilter("filter must be a JSON object, got %T", raw)
	}
	return ParseFilter(expr, opts...)
}

// MarshalFilter encodes f in the mapping form accepted by ParseFilterJSON.
// A nil Filter encodes as an empty object.
func MarshalFilter(f Filter) ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return json.Marshal(f.Expression())
}

func (o *parseOptions) parseExpression(expr map[string]any) (Filter, error) {
	if len(expr) == 0 {
		return nil, invalidFilter("empty nested expression")
	}

	keys := sortedKeys(expr)

	if len(keys) == 1 && strings.HasPrefix(keys[0], "$") {
		return o.parseLogical(keys[0], expr[keys[0]])
	}

	filters := make([]Filter, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, "$") {
			return nil, invalidFilter("operator %q can't be combined with other keys", key)
		}
		f, err := o.parseField(key, expr[key])
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if len(filters) == 1 {
		return filters[0], nil
	}
	return NewAnd(filters...), nil
}

func (o *parseOptions) parseLogical(key string, operand any) (Filter, error) {
	switch normalizeOperator(key) {
	case OpAnd, OpOr:
		items, ok := asList(operand)
		if !ok || len(items) == 0 {
			return nil, invalidFilter("%s expects a non-empty list of expressions, got %T", key, operand)
		}
		filters, err := o.parseList(key, items)
		if err != nil {
			return nil, err
		}
		if normalizeOperator(key) == OpAnd {
			return NewAnd(filters...), nil
		}
		return NewOr(filters...), nil

	case OpNot:
		if m, ok := operand.(map[string]any); ok {
			inner, err := o.parseExpression(m)
			if err != nil {
				return nil, err
			}
			return NewNot(inner), nil
		}
		items, ok := asList(operand)
		if !ok || len(items) == 0 {
			return nil, invalidFilter("%s expects an expression or a non-empty list, got %T", key, operand)
		}
		filters, err := o.parseList(key, items)
		if err != nil {
			return nil, err
		}
		if len(filters) == 1 {
			return NewNot(filters[0]), nil
		}
		negated := make([]Filter, len(filters))
		for i, f := range filters {
			negated[i] = NewNot(f)
		}
		return NewAnd(negated...), nil

	default:
		return nil, invalidFilter("unknown logical operator %q", key)
	}
}

func (o *parseOptions) parseList(key string, items []any) ([]Filter, error) {
	filters := make([]Filter, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, invalidFilter("%s[%d] must be an expression, got %T", key, i, item)
		}
		f, err := o.parseExpression(m)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (o *parseOptions) parseField(field string, value any) (Filter, error) {
	if err := o.checkField(field); err != nil {
		return nil, err
	}

	cond, ok := value.(map[string]any)
	if !ok {
		v, err := normalizeScalar(value)
		if err != nil {
			return nil, invalidFilter("field %q: %v", field, err)
		}
		return NewMatch(field, v), nil
	}

	if len(cond) != 1 {
		return nil, invalidFilter("field %q: condition must have exactly one operator, got %d", field, len(cond))
	}

	var (
		key     string
		operand any
	)
	for k, v := range cond {
		key, operand = k, v
	}

	f, err := buildCondition(field, normalizeOperator(key), operand)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (o *parseOptions) checkField(field string) error {
	if !isFieldName(field) {
		return invalidFilter("invalid field name %q", field)
	}
	if o.allowed != nil {
		if _, ok := o.allowed[field]; !ok {
			return invalidFilter("unknown field %q", field)
		}
	}
	return nil
}

func buildCondition(field string, op Operator, operand any) (Filter, error) {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		v, err := normalizeScalar(operand)
		if err != nil {
			return nil, invalidFilter("field %q: %s %v", field, op, err)
		}
		if v == nil && op != OpEq && op != OpNe {
			return nil, invalidFilter("field %q: %s does not accept null", field, op)
		}
		if op == OpEq {
			return NewMatch(field, v), nil
		}
		return NewCompare(field, op, v), nil

	case OpIn, OpNin:
		values, err := normalizeSet(operand)
		if err != nil {
			return nil, invalidFilter("field %q: %s %v", field, op, err)
		}
		if op == OpIn {
			return NewMatchAny(field, values...), nil
		}
		return NewMatchExcept(field, values...), nil

	case OpExists:
		b, ok := operand.(bool)
		if !ok {
			return nil, invalidFilter("field %q: %s expects a boolean, got %T", field, op, operand)
		}
		return NewExists(field, b), nil

	case OpBetween:
		low, high, err := normalizeRange(operand)
		if err != nil {
			return nil, invalidFilter("field %q: %s %v", field, op, err)
		}
		return NewBetween(field, low, high), nil

	case OpLike, OpIlike:
		s, ok := operand.(string)
		if !ok {
			return nil, invalidFilter("field %q: %s expects a string pattern, got %T", field, op, operand)
		}
		if op == OpIlike {
			return NewILike(field, s), nil
		}
		return NewLike(field, s), nil

	case OpAnd, OpOr, OpNot:
		return nil, invalidFilter("field %q: logical operator %s is not a field condition", field, op)

	default:
		return nil, invalidFilter("field %q: unsupported operator %q", field, string(op))
	}
}

// Validate checks a programmatically built Filter with the same rules
// ParseFilter applies. A nil Filter is valid.
func Validate(f Filter) error {
	if f == nil {
		return nil
	}
	switch n := f.(type) {
	case *MatchCondition:
		return validateField(n.Field, func() error {
			_, err := normalizeScalar(n.Value)
			return err
		})
	case *CompareCondition:
		return validateField(n.Field, func() error {
			switch n.Op {
			case OpNe, OpLt, OpLte, OpGt, OpGte:
			default:
				return fmt.Errorf("unsupported comparison operator %q", string(n.Op))
			}
			v, err := normalizeScalar(n.Value)
			if err == nil && v == nil && n.Op != OpNe {
				return fmt.Errorf("%s does not accept null", n.Op)
			}
			return err
		})
	case *MatchAnyCondition:
		return validateField(n.Field, func() error {
			_, err := normalizeSet(n.Values)
			return err
		})
	case *MatchExceptCondition:
		return validateField(n.Field, func() error {
			_, err := normalizeSet(n.Values)
			return err
		})
	case *ExistsCondition:
		return validateField(n.Field, nil)
	case *BetweenCondition:
		return validateField(n.Field, func() error {
			_, _, err := normalizeRange([]any{n.Low, n.High})
			return err
		})
	case *LikeCondition:
		return validateField(n.Field, nil)
	case *AndFilter:
		return validateChildren(OpAnd, n.Filters)
	case *OrFilter:
		return validateChildren(OpOr, n.Filters)
	case *NotFilter:
		if n.Filter == nil {
			return invalidFilter("%s without operand", OpNot)
		}
		return Validate(n.Filter)
	default:
		return invalidFilter("unsupported filter node %T", f)
	}
}

func validateField(field string, check func() error) error {
	if !isFieldName(field) {
		return invalidFilter("invalid field name %q", field)
	}
	if check == nil {
		return nil
	}
	if err := check(); err != nil {
		return invalidFilter("field %q: %v", field, err)
	}
	return nil
}

func validateChildren(op Operator, filters []Filter) error {
	if len(filters) == 0 {
		return invalidFilter("%s expects at least one operand", op)
	}
	for _, f := range filters {
		if f == nil {
			return invalidFilter("%s contains a nil operand", op)
		}
		if err := Validate(f); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
