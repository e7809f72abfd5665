package loader

import (
	"fmt"
	"strings"
)

// Row is one result row with its column names in query order.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of column and whether the row has it.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// PageContentMapper turns a row into the text of a document.
type PageContentMapper func(Row) string

// MetadataMapper turns a row into the metadata of a document.
type MetadataMapper func(Row) map[string]any

// PageContentDefaultMapper renders "column: value" lines for the given
// columns, or for every column when none are given.
func PageContentDefaultMapper(row Row, columns ...string) string {
	if len(columns) == 0 {
		columns = row.Columns
	}
	lines := make([]string, 0, len(columns))
	for _, c := range columns {
		v, ok := row.Get(c)
		if !ok {
			continue
		}
		lines = append(lines, c+": "+formatValue(v))
	}
	return strings.Join(lines, "\n")
}

// MetadataDefaultMapper copies the given columns into a map. Without columns
// the map is empty.
func MetadataDefaultMapper(row Row, columns ...string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := row.Get(c); ok {
			out[c] = v
		}
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
