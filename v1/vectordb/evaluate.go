package vectordb

import (
	"regexp"
	"strings"
	"sync"
)

// truth is an SQL three-valued logic result.
type truth int8

const (
	unknown truth = iota
	falsy
	truthy
)

func truthOf(b bool) truth {
	if b {
		return truthy
	}
	return falsy
}

func (t truth) not() truth {
	switch t {
	case truthy:
		return falsy
	case falsy:
		return truthy
	default:
		return unknown
	}
}

// Evaluate reports whether metadata satisfies f, using the same semantics
// the SQL backends apply: comparisons against a missing or null field are
// unknown, and unknown never matches at the top level.
//
// A nil Filter matches everything.
func Evaluate(f Filter, metadata map[string]any) bool {
	if f == nil {
		return true
	}
	return evaluate(f, metadata) == truthy
}

func evaluate(f Filter, md map[string]any) truth {
	switch n := f.(type) {
	case *MatchCondition:
		v, present := lookup(md, n.Field)
		if n.Value == nil {
			return truthOf(!present)
		}
		if !present {
			return unknown
		}
		return compareTruth(v, n.Value, OpEq)

	case *CompareCondition:
		v, present := lookup(md, n.Field)
		if n.Value == nil {
			return truthOf(present)
		}
		if !present {
			return unknown
		}
		return compareTruth(v, n.Value, n.Op)

	case *MatchAnyCondition:
		if len(n.Values) == 0 {
			return falsy
		}
		v, present := lookup(md, n.Field)
		if !present {
			return unknown
		}
		return inSet(v, n.Values)

	case *MatchExceptCondition:
		if len(n.Values) == 0 {
			return truthy
		}
		v, present := lookup(md, n.Field)
		if !present {
			return unknown
		}
		return inSet(v, n.Values).not()

	case *ExistsCondition:
		_, present := lookup(md, n.Field)
		return truthOf(present == n.Exists)

	case *BetweenCondition:
		v, present := lookup(md, n.Field)
		if !present {
			return unknown
		}
		return and(compareTruth(v, n.Low, OpGte), compareTruth(v, n.High, OpLte))

	case *LikeCondition:
		v, present := lookup(md, n.Field)
		if !present {
			return unknown
		}
		s, ok := v.(string)
		if !ok {
			return unknown
		}
		return truthOf(likeRegexp(n.Pattern, n.CaseInsensitive).MatchString(s))

	case *AndFilter:
		result := truthy
		for _, child := range n.Filters {
			result = and(result, evaluate(child, md))
			if result == falsy {
				return falsy
			}
		}
		return result

	case *OrFilter:
		result := falsy
		for _, child := range n.Filters {
			result = or(result, evaluate(child, md))
			if result == truthy {
				return truthy
			}
		}
		return result

	case *NotFilter:
		return evaluate(n.Filter, md).not()

	default:
		return unknown
	}
}

func and(a, b truth) truth {
	switch {
	case a == falsy || b == falsy:
		return falsy
	case a == truthy && b == truthy:
		return truthy
	default:
		return unknown
	}
}

func or(a, b truth) truth {
	switch {
	case a == truthy || b == truthy:
		return truthy
	case a == falsy && b == falsy:
		return falsy
	default:
		return unknown
	}
}

// lookup returns the normalized value of field; null counts as absent.
func lookup(md map[string]any, field string) (any, bool) {
	raw, ok := md[field]
	if !ok || raw == nil {
		return nil, false
	}
	v, err := normalizeScalar(raw)
	if err != nil {
		// lists and objects are present but not comparable to scalars
		return raw, true
	}
	return v, true
}

func inSet(v any, values []any) truth {
	result := falsy
	for _, candidate := range values {
		switch compareTruth(v, candidate, OpEq) {
		case truthy:
			return truthy
		case unknown:
			result = unknown
		}
	}
	return result
}

func compareTruth(a, b any, op Operator) truth {
	c, ok := compareValues(a, b)
	if !ok {
		return unknown
	}
	switch op {
	case OpEq:
		return truthOf(c == 0)
	case OpNe:
		return truthOf(c != 0)
	case OpLt:
		return truthOf(c < 0)
	case OpLte:
		return truthOf(c <= 0)
	case OpGt:
		return truthOf(c > 0)
	case OpGte:
		return truthOf(c >= 0)
	default:
		return unknown
	}
}

// compareValues orders two normalized scalars of the same family.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case int64, float64:
		fx, _ := toFloat(x)
		fy, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fx < fy:
			return -1, true
		case fx > fy:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

var likeCache sync.Map

// likeRegexp translates an SQL LIKE pattern into an anchored regular expression.
func likeRegexp(pattern string, caseInsensitive bool) *regexp.Regexp {
	key := "s:" + pattern
	if caseInsensitive {
		key = "i:" + pattern
	}
	if re, ok := likeCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	if caseInsensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("(?s)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(`\\`)
	}
	b.WriteString("$")

	re := regexp.MustCompile(b.String())
	likeCache.Store(key, re)
	return re
}
