package cratedb

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// MetadataColumn is the OBJECT column metadata filters address.
const MetadataColumn = "cmetadata"

var comparisonSQL = map[vectordb.Operator]string{
	vectordb.OpNe:  "<>",
	vectordb.OpLt:  "<",
	vectordb.OpLte: "<=",
	vectordb.OpGt:  ">",
	vectordb.OpGte: ">=",
}

// CompileFilter translates a filter AST into a WHERE expression over the
// subscripts of an OBJECT column, e.g. "cmetadata"['page'] = $1.
//
// Field names are inlined into the subscript as quoted string literals;
// every value is a bound parameter. A nil filter compiles to a nil expression.
func CompileFilter(f vectordb.Filter, column string) (clause.Expression, error) {
	if f == nil {
		return nil, nil
	}
	if err := vectordb.Validate(f); err != nil {
		return nil, err
	}
	if column == "" {
		column = MetadataColumn
	}

	var (
		sb   strings.Builder
		vars []any
	)
	if err := compile(&sb, &vars, f, quoteIdent(column)); err != nil {
		return nil, err
	}
	return clause.Expr{SQL: sb.String(), Vars: vars}, nil
}

func compile(sb *strings.Builder, vars *[]any, f vectordb.Filter, column string) error {
	// gorm expands every ? in the expression, quoted or not.
	if field, ok := fieldOf(f); ok && strings.Contains(field, "?") {
		return fmt.Errorf("%w: field name %q contains a placeholder", vectordb.ErrInvalidFilter, field)
	}

	switch n := f.(type) {
	case *vectordb.MatchCondition:
		ref := subscript(column, n.Field)
		if n.Value == nil {
			sb.WriteString(ref + " IS NULL")
			return nil
		}
		sb.WriteString(ref + " = ?")
		*vars = append(*vars, n.Value)

	case *vectordb.CompareCondition:
		ref := subscript(column, n.Field)
		if n.Value == nil {
			sb.WriteString(ref + " IS NOT NULL")
			return nil
		}
		op, ok := comparisonSQL[n.Op]
		if !ok {
			return fmt.Errorf("%w: unsupported comparison %q", vectordb.ErrInvalidFilter, string(n.Op))
		}
		sb.WriteString(ref + " " + op + " ?")
		*vars = append(*vars, n.Value)

	case *vectordb.MatchAnyCondition:
		if len(n.Values) == 0 {
			sb.WriteString("FALSE")
			return nil
		}
		sb.WriteString(subscript(column, n.Field) + " IN ?")
		*vars = append(*vars, n.Values)

	case *vectordb.MatchExceptCondition:
		if len(n.Values) == 0 {
			sb.WriteString("TRUE")
			return nil
		}
		sb.WriteString(subscript(column, n.Field) + " NOT IN ?")
		*vars = append(*vars, n.Values)

	case *vectordb.ExistsCondition:
		if n.Exists {
			sb.WriteString(subscript(column, n.Field) + " IS NOT NULL")
		} else {
			sb.WriteString(subscript(column, n.Field) + " IS NULL")
		}

	case *vectordb.BetweenCondition:
		sb.WriteString(subscript(column, n.Field) + " BETWEEN ? AND ?")
		*vars = append(*vars, n.Low, n.High)

	case *vectordb.LikeCondition:
		op := " LIKE ?"
		if n.CaseInsensitive {
			op = " ILIKE ?"
		}
		sb.WriteString(subscript(column, n.Field) + op)
		*vars = append(*vars, n.Pattern)

	case *vectordb.AndFilter:
		return compileJunction(sb, vars, n.Filters, " AND ", column)

	case *vectordb.OrFilter:
		return compileJunction(sb, vars, n.Filters, " OR ", column)

	case *vectordb.NotFilter:
		sb.WriteString("NOT (")
		if err := compile(sb, vars, n.Filter, column); err != nil {
			return err
		}
		sb.WriteString(")")

	default:
		return fmt.Errorf("%w: unsupported filter node %T", vectordb.ErrInvalidFilter, f)
	}
	return nil
}

func compileJunction(sb *strings.Builder, vars *[]any, filters []vectordb.Filter, sep, column string) error {
	sb.WriteString("(")
	for i, child := range filters {
		if i > 0 {
			sb.WriteString(sep)
		}
		if err := compile(sb, vars, child, column); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

func fieldOf(f vectordb.Filter) (string, bool) {
	switch n := f.(type) {
	case *vectordb.MatchCondition:
		return n.Field, true
	case *vectordb.CompareCondition:
		return n.Field, true
	case *vectordb.MatchAnyCondition:
		return n.Field, true
	case *vectordb.MatchExceptCondition:
		return n.Field, true
	case *vectordb.ExistsCondition:
		return n.Field, true
	case *vectordb.BetweenCondition:
		return n.Field, true
	case *vectordb.LikeCondition:
		return n.Field, true
	}
	return "", false
}

func subscript(column, field string) string {
	return column + "['" + strings.ReplaceAll(field, "'", "''") + "']"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
