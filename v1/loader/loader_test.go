package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRow = Row{Columns: []string{"a", "b", "c"}, Values: []any{int64(1), 2.5, nil}}

func TestPageContentDefaultMapper(t *testing.T) {
	assert.Equal(t, "a: 1\nb: 2.5\nc: ", PageContentDefaultMapper(testRow))
	assert.Equal(t, "b: 2.5", PageContentDefaultMapper(testRow, "b", "missing"))
}

func TestMetadataDefaultMapper(t *testing.T) {
	assert.Equal(t, map[string]any{}, MetadataDefaultMapper(testRow))
	assert.Equal(t, map[string]any{"b": 2.5}, MetadataDefaultMapper(testRow, "b"))
}

func TestDocument(t *testing.T) {
	row := Row{Columns: []string{"a", "b"}, Values: []any{int64(1), int64(2)}}

	tests := []struct {
		name         string
		opts         []Option
		wantContent  string
		wantMetadata map[string]any
	}{
		{
			name:         "defaults",
			wantContent:  "a: 1\nb: 2",
			wantMetadata: map[string]any{},
		},
		{
			name:         "rownum",
			opts:         []Option{WithRownumInMetadata()},
			wantContent:  "a: 1\nb: 2",
			wantMetadata: map[string]any{"row": 3},
		},
		{
			name:         "query",
			opts:         []Option{WithQueryInMetadata()},
			wantContent:  "a: 1\nb: 2",
			wantMetadata: map[string]any{"query": "SELECT 1 AS a, 2 AS b"},
		},
		{
			name:         "columns",
			opts:         []Option{WithPageContentColumns("a"), WithMetadataColumns("b")},
			wantContent:  "a: 1",
			wantMetadata: map[string]any{"b": int64(2)},
		},
		{
			name: "mappers",
			opts: []Option{
				WithPageContentMapper(func(r Row) string { return "custom" }),
				WithMetadataMapper(func(r Row) map[string]any { return nil }),
				WithRownumInMetadata(),
			},
			wantContent:  "custom",
			wantMetadata: map[string]any{"row": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(nil, "SELECT 1 AS a, 2 AS b", tt.opts...)
			require.NoError(t, err)
			doc := l.document(row, 3)
			assert.Equal(t, tt.wantContent, doc.PageContent)
			assert.Equal(t, tt.wantMetadata, doc.Metadata)
		})
	}
}

func TestNewRejectsEmptyQuery(t *testing.T) {
	_, err := New(nil, "")
	assert.Error(t, err)
}
