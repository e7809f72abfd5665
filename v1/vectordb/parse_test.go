package vectordb

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseFilter_Empty(t *testing.T) {
	f, err := ParseFilter(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Errorf("expected nil filter, got %#v", f)
	}

	f, err = ParseFilter(map[string]any{})
	if err != nil || f != nil {
		t.Errorf("expected nil filter for {}, got %#v, %v", f, err)
	}
}

func TestParseFilter_ImplicitEquality(t *testing.T) {
	f, err := ParseFilter(map[string]any{"page": "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := f.(*MatchCondition)
	if !ok {
		t.Fatalf("expected *MatchCondition, got %T", f)
	}
	if m.Field != "page" || m.Value != "0" {
		t.Errorf("unexpected condition %+v", m)
	}
}

func TestParseFilter_MultipleFieldsAreAnded(t *testing.T) {
	f, err := ParseFilter(map[string]any{
		"source": "a.pdf",
		"page":   map[string]any{"$gt": 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := f.(*AndFilter)
	if !ok {
		t.Fatalf("expected *AndFilter, got %T", f)
	}
	if len(and.Filters) != 2 {
		t.Fatalf("expected 2 operands, got %d", len(and.Filters))
	}
	// keys are visited in sorted order
	if c, ok := and.Filters[0].(*CompareCondition); !ok || c.Field != "page" || c.Op != OpGt || c.Value != int64(3) {
		t.Errorf("unexpected first operand %#v", and.Filters[0])
	}
}

func TestParseFilter_OperatorSpellings(t *testing.T) {
	for _, key := range []string{"$in", "IN", "in", "$IN"} {
		f, err := ParseFilter(map[string]any{"page": map[string]any{key: []any{"0", "2"}}})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", key, err)
		}
		in, ok := f.(*MatchAnyCondition)
		if !ok {
			t.Fatalf("%s: expected *MatchAnyCondition, got %T", key, f)
		}
		if !reflect.DeepEqual(in.Values, []any{"0", "2"}) {
			t.Errorf("%s: unexpected values %v", key, in.Values)
		}
	}
}

func TestParseFilter_Operators(t *testing.T) {
	tests := []struct {
		name string
		expr map[string]any
		want Filter
	}{
		{"eq", map[string]any{"a": map[string]any{"$eq": 1}}, NewMatch("a", int64(1))},
		{"eq null", map[string]any{"a": map[string]any{"$eq": nil}}, NewMatch("a", nil)},
		{"ne", map[string]any{"a": map[string]any{"$ne": "x"}}, NewCompare("a", OpNe, "x")},
		{"ne null", map[string]any{"a": map[string]any{"$ne": nil}}, NewCompare("a", OpNe, nil)},
		{"lte", map[string]any{"a": map[string]any{"lte": 2.5}}, NewCompare("a", OpLte, 2.5)},
		{"nin", map[string]any{"a": map[string]any{"$nin": []any{1, 2}}}, NewMatchExcept("a", int64(1), int64(2))},
		{"in empty", map[string]any{"a": map[string]any{"$in": []any{}}}, NewMatchAny("a")},
		{"in typed slice", map[string]any{"a": map[string]any{"$in": []string{"x"}}}, NewMatchAny("a", "x")},
		{"exists", map[string]any{"a": map[string]any{"$exists": false}}, NewExists("a", false)},
		{"between", map[string]any{"a": map[string]any{"$between": []any{1, 5}}}, NewBetween("a", int64(1), int64(5))},
		{"like", map[string]any{"a": map[string]any{"$like": "fo%"}}, NewLike("a", "fo%")},
		{"ilike", map[string]any{"a": map[string]any{"ILIKE": "FO%"}}, NewILike("a", "FO%")},
		{"bool literal", map[string]any{"a": true}, NewMatch("a", true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseFilter_Logical(t *testing.T) {
	f, err := ParseFilter(map[string]any{
		"$or": []any{
			map[string]any{"page": "0"},
			map[string]any{"$not": map[string]any{"page": "1"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NewOr(NewMatch("page", "0"), NewNot(NewMatch("page", "1")))
	if !reflect.DeepEqual(f, want) {
		t.Errorf("got %#v, want %#v", f, want)
	}
}

func TestParseFilter_NotList(t *testing.T) {
	f, err := ParseFilter(map[string]any{
		"$not": []any{
			map[string]any{"page": "0"},
			map[string]any{"page": "1"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NewAnd(NewNot(NewMatch("page", "0")), NewNot(NewMatch("page", "1")))
	if !reflect.DeepEqual(f, want) {
		t.Errorf("got %#v, want %#v", f, want)
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr map[string]any
	}{
		{"operator mixed with field", map[string]any{"id": 2, "$name": "foo"}},
		{"or with map", map[string]any{"$or": map[string]any{}}},
		{"and with map", map[string]any{"$and": map[string]any{}}},
		{"and empty list", map[string]any{"$and": []any{}}},
		{"between at top level", map[string]any{"$between": map[string]any{}}},
		{"eq at top level", map[string]any{"$eq": map[string]any{}}},
		{"exists at top level", map[string]any{"$exists": map[string]any{}}},
		{"exists with number", map[string]any{"$exists": 1}},
		{"not with number", map[string]any{"$not": 2}},
		{"unknown operator", map[string]any{"a": map[string]any{"$regex": "x"}}},
		{"two operators", map[string]any{"a": map[string]any{"$gt": 1, "$lt": 5}}},
		{"empty condition", map[string]any{"a": map[string]any{}}},
		{"control character in field", map[string]any{"a\nb": 1}},
		{"empty field name", map[string]any{"": 1}},
		{"in with scalar", map[string]any{"a": map[string]any{"$in": "x"}}},
		{"in mixed types", map[string]any{"a": map[string]any{"$in": []any{"x", 1}}}},
		{"in bools", map[string]any{"a": map[string]any{"$in": []any{true}}}},
		{"in nested list", map[string]any{"a": map[string]any{"$in": []any{[]any{1}}}}},
		{"exists with string", map[string]any{"a": map[string]any{"$exists": "yes"}}},
		{"between one bound", map[string]any{"a": map[string]any{"$between": []any{1}}}},
		{"between mixed", map[string]any{"a": map[string]any{"$between": []any{1, "z"}}}},
		{"like with number", map[string]any{"a": map[string]any{"$like": 3}}},
		{"gt with list", map[string]any{"a": map[string]any{"$gt": []any{1}}}},
		{"lt null", map[string]any{"a": map[string]any{"$lt": nil}}},
		{"literal list", map[string]any{"a": []any{1, 2}}},
		{"or with scalar element", map[string]any{"$or": []any{1}}},
		{"logical operator as field condition", map[string]any{"a": map[string]any{"$and": []any{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.expr)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestParseFilter_AllowedFields(t *testing.T) {
	_, err := ParseFilter(map[string]any{"page": 1}, WithAllowedFields("page", "source"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = ParseFilter(map[string]any{"author": "x"}, WithAllowedFields("page", "source"))
	if !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for undeclared field, got %v", err)
	}
}

func TestParseFilterJSON(t *testing.T) {
	f, err := ParseFilterJSON([]byte(`{"page": {"$in": [1, 2.5]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NewMatchAny("page", int64(1), 2.5)
	if !reflect.DeepEqual(f, want) {
		t.Errorf("got %#v, want %#v", f, want)
	}

	if _, err := ParseFilterJSON([]byte(`["hello"]`)); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for a list, got %v", err)
	}
	if _, err := ParseFilterJSON([]byte(`{"page": `)); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for malformed JSON, got %v", err)
	}
	if f, err := ParseFilterJSON([]byte(` null `)); f != nil || err != nil {
		t.Errorf("expected nil filter for null, got %#v, %v", f, err)
	}
}

func TestMarshalFilter_RoundTrip(t *testing.T) {
	exprs := []string{
		`{"page":{"$eq":"0"}}`,
		`{"$and":[{"page":{"$gte":1}},{"source":{"$nin":["a","b"]}}]}`,
		`{"$or":[{"tag":{"$exists":true}},{"$not":{"title":{"$ilike":"%go%"}}}]}`,
		`{"year":{"$between":[2001,2010]}}`,
	}
	for _, expr := range exprs {
		f, err := ParseFilterJSON([]byte(expr))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", expr, err)
		}
		out, err := MarshalFilter(f)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", expr, err)
		}

		var want, got any
		_ = json.Unmarshal([]byte(expr), &want)
		_ = json.Unmarshal(out, &got)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got  %s\n want %s", out, expr)
		}

		again, err := ParseFilterJSON(out)
		if err != nil {
			t.Fatalf("%s: reparse failed: %v", out, err)
		}
		if !reflect.DeepEqual(again, f) {
			t.Errorf("reparsed AST differs for %s", expr)
		}
	}

	out, err := MarshalFilter(nil)
	if err != nil || string(out) != "{}" {
		t.Errorf("expected {} for nil filter, got %s, %v", out, err)
	}
}

func TestParseFilter_FieldNames(t *testing.T) {
	for _, field := range []string{"source-file", "file.name", "it's", "Seite 1"} {
		f, err := ParseFilter(map[string]any{field: "x"})
		if err != nil {
			t.Errorf("ParseFilter(%q) = %v", field, err)
			continue
		}
		if !Evaluate(f, map[string]any{field: "x"}) {
			t.Errorf("filter on %q does not match its own value", field)
		}
	}
}

func TestMarshalFilter_Invalid(t *testing.T) {
	for _, f := range []Filter{NewNot(nil), NewAnd(), NewOr(NewMatch("a", 1), nil)} {
		out, err := MarshalFilter(f)
		if !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("MarshalFilter(%#v) = %s, %v, want ErrInvalidFilter", f, out, err)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := []Filter{
		nil,
		NewMatch("a", 1),
		NewAnd(NewCompare("a", OpGt, 1.5), NewMatchAny("b", "x", "y")),
		NewNot(NewExists("c", true)),
	}
	for _, f := range valid {
		if err := Validate(f); err != nil {
			t.Errorf("Validate(%#v) = %v", f, err)
		}
	}

	invalid := []Filter{
		NewMatch("bad\tname", 1),
		NewCompare("a", OpEq, 1),
		NewCompare("a", OpLt, nil),
		NewMatchAny("a", "x", 2),
		NewBetween("a", 1, "z"),
		NewAnd(),
		NewOr(NewMatch("a", 1), nil),
		NewNot(nil),
		NewMatch("a", []int{1}),
	}
	for _, f := range invalid {
		if err := Validate(f); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("Validate(%#v) = %v, want ErrInvalidFilter", f, err)
		}
	}
}
