package vectordb

// Filter is a node of a parsed metadata filter.
// Every backend compiles the same tree to its native predicate; Evaluate
// interprets it in memory.
//
// A nil Filter matches every record.
type Filter interface {
	// IsFilterCondition is a marker method to ensure type safety
	IsFilterCondition()

	// Expression renders the node back into the mapping form accepted by ParseFilter.
	Expression() map[string]any
}

// Operator is the canonical, lower-case, "$"-prefixed name of a filter operator.
type Operator string

const (
	OpEq      Operator = "$eq"
	OpNe      Operator = "$ne"
	OpLt      Operator = "$lt"
	OpLte     Operator = "$lte"
	OpGt      Operator = "$gt"
	OpGte     Operator = "$gte"
	OpIn      Operator = "$in"
	OpNin     Operator = "$nin"
	OpExists  Operator = "$exists"
	OpBetween Operator = "$between"
	OpLike    Operator = "$like"
	OpIlike   Operator = "$ilike"

	OpAnd Operator = "$and"
	OpOr  Operator = "$or"
	OpNot Operator = "$not"
)

// ── Field Conditions ─────────────────────────────────────────────────────────

// MatchCondition is an equality test (WHERE field = value).
// A nil Value tests for a missing or null field (WHERE field IS NULL).
type MatchCondition struct {
	Field string
	Value any
}

func (c *MatchCondition) IsFilterCondition() {}

func (c *MatchCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(OpEq): c.Value}}
}

// CompareCondition is an ordering or inequality test. Op is one of
// $ne, $lt, $lte, $gt, $gte. A nil Value with $ne tests WHERE field IS NOT NULL.
type CompareCondition struct {
	Field string
	Op    Operator
	Value any
}

func (c *CompareCondition) IsFilterCondition() {}

func (c *CompareCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(c.Op): c.Value}}
}

// MatchAnyCondition matches if the field is one of Values (IN).
// An empty Values matches nothing.
type MatchAnyCondition struct {
	Field  string
	Values []any
}

func (c *MatchAnyCondition) IsFilterCondition() {}

func (c *MatchAnyCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(OpIn): listOrEmpty(c.Values)}}
}

// MatchExceptCondition matches if the field is present and none of Values (NOT IN).
// An empty Values matches everything.
type MatchExceptCondition struct {
	Field  string
	Values []any
}

func (c *MatchExceptCondition) IsFilterCondition() {}

func (c *MatchExceptCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(OpNin): listOrEmpty(c.Values)}}
}

// ExistsCondition tests whether the field holds a non-null value.
type ExistsCondition struct {
	Field  string
	Exists bool
}

func (c *ExistsCondition) IsFilterCondition() {}

func (c *ExistsCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(OpExists): c.Exists}}
}

// BetweenCondition is an inclusive range test (WHERE field >= Low AND field <= High).
type BetweenCondition struct {
	Field string
	Low   any
	High  any
}

func (c *BetweenCondition) IsFilterCondition() {}

func (c *BetweenCondition) Expression() map[string]any {
	return map[string]any{c.Field: map[string]any{string(OpBetween): []any{c.Low, c.High}}}
}

// LikeCondition is an SQL pattern match: % matches any run of characters,
// _ a single one, and \ escapes either.
type LikeCondition struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
}

func (c *LikeCondition) IsFilterCondition() {}

func (c *LikeCondition) Expression() map[string]any {
	op := OpLike
	if c.CaseInsensitive {
		op = OpIlike
	}
	return map[string]any{c.Field: map[string]any{string(op): c.Pattern}}
}

// ── Logical Combinators ──────────────────────────────────────────────────────

// AndFilter matches when all Filters match.
type AndFilter struct {
	Filters []Filter
}

func (f *AndFilter) IsFilterCondition() {}

func (f *AndFilter) Expression() map[string]any {
	return map[string]any{string(OpAnd): expressions(f.Filters)}
}

// OrFilter matches when at least one of Filters matches.
type OrFilter struct {
	Filters []Filter
}

func (f *OrFilter) IsFilterCondition() {}

func (f *OrFilter) Expression() map[string]any {
	return map[string]any{string(OpOr): expressions(f.Filters)}
}

// NotFilter negates Filter.
type NotFilter struct {
	Filter Filter
}

func (f *NotFilter) IsFilterCondition() {}

func (f *NotFilter) Expression() map[string]any {
	return map[string]any{string(OpNot): f.Filter.Expression()}
}

func listOrEmpty(values []any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

func expressions(filters []Filter) []any {
	out := make([]any, 0, len(filters))
	for _, f := range filters {
		out = append(out, f.Expression())
	}
	return out
}

// ── Constructors ─────────────────────────────────────────────────────────────
//
// Constructors do not validate. Backends call Validate before compiling, and
// ParseFilter validates as it builds.

// NewMatch creates an equality condition.
func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value}
}

// NewCompare creates a $ne/$lt/$lte/$gt/$gte condition.
func NewCompare(field string, op Operator, value any) *CompareCondition {
	return &CompareCondition{Field: field, Op: op, Value: value}
}

// NewMatchAny creates an IN condition.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values}
}

// NewMatchExcept creates a NOT IN condition.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values}
}

// NewExists creates an existence test.
func NewExists(field string, exists bool) *ExistsCondition {
	return &ExistsCondition{Field: field, Exists: exists}
}

// NewBetween creates an inclusive range condition.
func NewBetween(field string, low, high any) *BetweenCondition {
	return &BetweenCondition{Field: field, Low: low, High: high}
}

// NewLike creates a case-sensitive pattern match.
func NewLike(field, pattern string) *LikeCondition {
	return &LikeCondition{Field: field, Pattern: pattern}
}

// NewILike creates a case-insensitive pattern match.
func NewILike(field, pattern string) *LikeCondition {
	return &LikeCondition{Field: field, Pattern: pattern, CaseInsensitive: true}
}

// NewAnd combines filters with AND.
//
// Example:
//
//	vectordb.NewAnd(
//	    vectordb.NewMatch("source", "handbook"),
//	    vectordb.NewCompare("page", vectordb.OpGte, 10),
//	)
func NewAnd(filters ...Filter) *AndFilter {
	return &AndFilter{Filters: filters}
}

// NewOr combines filters with OR.
func NewOr(filters ...Filter) *OrFilter {
	return &OrFilter{Filters: filters}
}

// NewNot negates a filter.
func NewNot(filter Filter) *NotFilter {
	return &NotFilter{Filter: filter}
}
