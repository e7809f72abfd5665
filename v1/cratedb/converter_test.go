package cratedb

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// dryRunDB renders statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=localhost port=5432 user=crate dbname=doc sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true},
	)
	require.NoError(t, err)
	return db
}

func compileToSQL(t *testing.T, expr map[string]any) (string, []any) {
	t.Helper()
	f, err := vectordb.ParseFilter(expr)
	require.NoError(t, err)

	where, err := CompileFilter(f, MetadataColumn)
	require.NoError(t, err)
	require.NotNil(t, where)

	var rows []EmbeddingRecord
	stmt := dryRunDB(t).Table(EmbeddingTable).Where(where).Find(&rows).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name     string
		expr     map[string]any
		wantSQL  string
		wantVars []any
	}{
		{
			name:     "equality",
			expr:     map[string]any{"page": "0"},
			wantSQL:  `"cmetadata"['page'] = $1`,
			wantVars: []any{"0"},
		},
		{
			name:     "in",
			expr:     map[string]any{"page": map[string]any{"$in": []any{"0", "2"}}},
			wantSQL:  `"cmetadata"['page'] IN ($1,$2)`,
			wantVars: []any{"0", "2"},
		},
		{
			name:     "dotted field",
			expr:     map[string]any{"file.name": "a.pdf"},
			wantSQL:  `"cmetadata"['file.name'] = $1`,
			wantVars: []any{"a.pdf"},
		},
		{
			name:     "quote in field is escaped",
			expr:     map[string]any{"page'] OR TRUE --": 1},
			wantSQL:  `"cmetadata"['page''] OR TRUE --'] = $1`,
			wantVars: []any{1},
		},
		{
			name:     "empty in",
			expr:     map[string]any{"page": map[string]any{"$in": []any{}}},
			wantSQL:  `WHERE FALSE`,
			wantVars: nil,
		},
		{
			name:     "empty nin",
			expr:     map[string]any{"page": map[string]any{"$nin": []any{}}},
			wantSQL:  `WHERE TRUE`,
			wantVars: nil,
		},
		{
			name:     "nin",
			expr:     map[string]any{"rank": map[string]any{"$nin": []any{1, 2}}},
			wantSQL:  `"cmetadata"['rank'] NOT IN ($1,$2)`,
			wantVars: []any{int64(1), int64(2)},
		},
		{
			name:     "comparison",
			expr:     map[string]any{"rank": map[string]any{"$gte": 2.5}},
			wantSQL:  `"cmetadata"['rank'] >= $1`,
			wantVars: []any{2.5},
		},
		{
			name:    "eq null",
			expr:    map[string]any{"tag": map[string]any{"$eq": nil}},
			wantSQL: `"cmetadata"['tag'] IS NULL`,
		},
		{
			name:    "ne null",
			expr:    map[string]any{"tag": map[string]any{"$ne": nil}},
			wantSQL: `"cmetadata"['tag'] IS NOT NULL`,
		},
		{
			name:    "exists",
			expr:    map[string]any{"tag": map[string]any{"$exists": true}},
			wantSQL: `"cmetadata"['tag'] IS NOT NULL`,
		},
		{
			name:     "between",
			expr:     map[string]any{"year": map[string]any{"$between": []any{2001, 2010}}},
			wantSQL:  `"cmetadata"['year'] BETWEEN $1 AND $2`,
			wantVars: []any{int64(2001), int64(2010)},
		},
		{
			name:     "ilike",
			expr:     map[string]any{"title": map[string]any{"$ilike": "%go%"}},
			wantSQL:  `"cmetadata"['title'] ILIKE $1`,
			wantVars: []any{"%go%"},
		},
		{
			name:     "implicit and",
			expr:     map[string]any{"lang": "en", "page": map[string]any{"$in": []any{"0", "2"}}},
			wantSQL:  `("cmetadata"['lang'] = $1 AND "cmetadata"['page'] IN ($2,$3))`,
			wantVars: []any{"en", "0", "2"},
		},
		{
			name: "or with not",
			expr: map[string]any{"$or": []any{
				map[string]any{"page": "0"},
				map[string]any{"$not": map[string]any{"lang": "de"}},
			}},
			wantSQL:  `("cmetadata"['page'] = $1 OR NOT ("cmetadata"['lang'] = $2))`,
			wantVars: []any{"0", "de"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars := compileToSQL(t, tt.expr)
			assert.Contains(t, sql, `FROM "langchain_embedding" WHERE `)
			assert.Contains(t, sql, tt.wantSQL)
			if tt.wantVars == nil {
				assert.Empty(t, vars)
			} else {
				assert.Equal(t, tt.wantVars, vars)
			}
		})
	}
}

func TestCompileFilter_Nil(t *testing.T) {
	expr, err := CompileFilter(nil, MetadataColumn)
	require.NoError(t, err)
	assert.Nil(t, expr)
}

func TestCompileFilter_RejectsInvalidAST(t *testing.T) {
	_, err := CompileFilter(vectordb.NewMatch("page\x00", 1), MetadataColumn)
	assert.True(t, errors.Is(err, vectordb.ErrInvalidFilter))

	_, err = CompileFilter(vectordb.NewOr(vectordb.NewMatch("a", 1), vectordb.NewMatch("what?", 1)), MetadataColumn)
	assert.ErrorIs(t, err, vectordb.ErrInvalidFilter)

	_, err = CompileFilter(vectordb.NewMatchAny("page", "0", 1), MetadataColumn)
	assert.ErrorIs(t, err, vectordb.ErrInvalidFilter)
}

func TestSearchQuery(t *testing.T) {
	f, err := vectordb.ParseFilter(map[string]any{"page": "0"})
	require.NoError(t, err)
	where, err := CompileFilter(f, MetadataColumn)
	require.NoError(t, err)

	req := vectordb.SearchRequest{Vector: []float32{1, 0}, TopK: 4}
	var rows []searchRow
	stmt := searchQuery(dryRunDB(t), req, []string{"c1", "c2"}, where).Find(&rows).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "VECTOR_SIMILARITY(embedding, $1) AS similarity")
	assert.NotContains(t, sql, "cmetadata, embedding,")
	assert.Contains(t, sql, `FROM "langchain_embedding"`)
	assert.Contains(t, sql, "collection_id IN ($2,$3)")
	assert.Contains(t, sql, `"cmetadata"['page'] = $4`)
	assert.Contains(t, sql, "ORDER BY similarity DESC,id ASC")
	assert.Contains(t, sql, "LIMIT")

	require.GreaterOrEqual(t, len(stmt.Vars), 4)
	assert.Equal(t, pq.Float32Array{1, 0}, stmt.Vars[0])
	assert.Equal(t, []any{"c1", "c2", "0"}, stmt.Vars[1:4])

	req.WithVectors = true
	stmt = searchQuery(dryRunDB(t), req, []string{"c1"}, nil).Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "cmetadata, embedding, VECTOR_SIMILARITY")
	assert.NotContains(t, stmt.SQL.String(), `"cmetadata"['`)
}

func TestDistanceFromSimilarity(t *testing.T) {
	assert.InDelta(t, 0.0, distanceFromSimilarity(1.0), 1e-9)
	assert.InDelta(t, 1.0, distanceFromSimilarity(0.5), 1e-9)
	assert.InDelta(t, 4.0, distanceFromSimilarity(0.2), 1e-9)
	assert.True(t, distanceFromSimilarity(0) > 1e300)
}
