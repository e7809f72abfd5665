package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

var fixtureTexts = []string{"foo", "bar", "baz"}

func fixtureMetadatas() []map[string]any {
	return []map[string]any{{"page": "0"}, {"page": "1"}, {"page": "2"}}
}

func newFixtureStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := FromTexts(context.Background(), vectordb.NewMemory(), embedding.NewFakeEmbedder(10),
		fixtureTexts, fixtureMetadatas(), nil, append([]Option{WithPreDeleteCollection()}, opts...)...)
	require.NoError(t, err)
	return s
}

func contents(docs []schema.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.PageContent
	}
	return out
}

func TestSimilaritySearch(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore(t)

	docs, err := s.SimilaritySearch(ctx, "foo", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "foo", docs[0].PageContent)
	assert.Equal(t, map[string]any{"page": "0"}, docs[0].Metadata)
	assert.NotEmpty(t, docs[0].ID)

	docs, err = s.SimilaritySearch(ctx, "foo", 3)
	require.NoError(t, err)
	assert.Equal(t, fixtureTexts, contents(docs))

	_, err = s.SimilaritySearch(ctx, "foo", 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestSimilaritySearchWithScore(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore(t)

	t.Run("filter", func(t *testing.T) {
		scored, err := s.SimilaritySearchWithScore(ctx, "foo", 1, WithFilterMap(map[string]any{"page": "0"}))
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, "foo", scored[0].Document.PageContent)
		assert.Equal(t, map[string]any{"page": "0"}, scored[0].Document.Metadata)
		assert.InDelta(t, 1.0, scored[0].Score, 1e-6)
	})

	t.Run("filter without match", func(t *testing.T) {
		scored, err := s.SimilaritySearchWithScore(ctx, "foo", 1, WithFilter(vectordb.NewMatch("page", "5")))
		require.NoError(t, err)
		assert.Empty(t, scored)
	})

	t.Run("in", func(t *testing.T) {
		docs, err := s.SimilaritySearch(ctx, "foo", 3,
			WithFilterMap(map[string]any{"page": map[string]any{"IN": []any{"0", "2"}}}))
		require.NoError(t, err)
		assert.Equal(t, []string{"foo", "baz"}, contents(docs))
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := s.SimilaritySearch(ctx, "foo", 1, WithFilterMap(map[string]any{"page": map[string]any{"$nope": 1}}))
		assert.ErrorIs(t, err, vectordb.ErrInvalidFilter)
	})

	t.Run("by vector", func(t *testing.T) {
		vector, err := embedding.NewFakeEmbedder(10).EmbedQuery(ctx, "foo")
		require.NoError(t, err)
		scored, err := s.SimilaritySearchByVectorWithScore(ctx, vector, 2)
		require.NoError(t, err)
		require.Len(t, scored, 2)
		assert.InDelta(t, 0.5, scored[1].Score, 1e-6)

		docs, err := s.SimilaritySearchByVector(ctx, vector, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"foo"}, contents(docs))
	})
}

func TestSimilaritySearchWithRelevanceScores(t *testing.T) {
	ctx := context.Background()

	t.Run("default relevance", func(t *testing.T) {
		s := newFixtureStore(t)
		scored, err := s.SimilaritySearchWithRelevanceScores(ctx, "foo", 3)
		require.NoError(t, err)
		require.Len(t, scored, 3)
		for i, want := range []float64{1.0, 0.5, 0.2} {
			assert.Equal(t, fixtureTexts[i], scored[i].Document.PageContent)
			assert.InDelta(t, want, scored[i].Score, 1e-6)
		}

		scored, err = s.SimilaritySearchWithRelevanceScores(ctx, "foo", 3, WithScoreThreshold(0.35))
		require.NoError(t, err)
		assert.Len(t, scored, 2)
	})

	t.Run("custom relevance", func(t *testing.T) {
		s := newFixtureStore(t, WithRelevanceScoreFunc(func(d float64) float64 { return d * 0 }))
		scored, err := s.SimilaritySearchWithRelevanceScores(ctx, "foo", 3, WithScoreThreshold(0.5))
		require.NoError(t, err)
		assert.Empty(t, scored)
	})
}

func TestMaxMarginalRelevanceSearch(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore(t)

	docs, err := s.MaxMarginalRelevanceSearch(ctx, "foo", 1, WithFetchK(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, contents(docs))

	scored, err := s.MaxMarginalRelevanceSearchWithScore(ctx, "foo", 1, WithFetchK(3))
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "foo", scored[0].Document.PageContent)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-6)

	docs, err = s.MaxMarginalRelevanceSearch(ctx, "foo", 3, WithFetchK(3), WithLambda(1))
	require.NoError(t, err)
	assert.Equal(t, fixtureTexts, contents(docs))
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := vectordb.NewMemory()
	embedder := embedding.NewFakeEmbedder(10)

	t.Run("missing dimensions", func(t *testing.T) {
		_, err := New(ctx, vectordb.NewMemory(), struct{ embedding.Embedder }{embedder})
		assert.ErrorIs(t, err, ErrMissingDimensions)
	})

	s, err := New(ctx, backend, embedder, WithCollectionName("lifecycle"), WithCollectionMetadata(map[string]any{"owner": "tests"}))
	require.NoError(t, err)
	assert.Equal(t, "lifecycle", s.CollectionName())
	assert.Equal(t, 10, s.Width())

	t.Run("empty collection", func(t *testing.T) {
		docs, err := s.SimilaritySearch(ctx, "foo", 4)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("delete", func(t *testing.T) {
		ids, err := s.AddTexts(ctx, fixtureTexts, nil, []string{"1", "2", "3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, ids)

		require.NoError(t, s.Delete(ctx, []string{"1", "2", "absent"}))
		docs, err := s.SimilaritySearch(ctx, "foo", 4)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "3", docs[0].ID)
		assert.Equal(t, map[string]any{}, docs[0].Metadata)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		require.NoError(t, s.DeleteCollection(ctx))
		vectors := make([][]float32, 5)
		texts := make([]string, 5)
		for i := range vectors {
			vectors[i], _ = embedder.EmbedQuery(ctx, "")
			texts[i] = string(rune('a' + i))
		}
		_, err := s.AddEmbeddings(ctx, texts, vectors, nil, nil)
		require.NoError(t, err)

		docs, err := s.SimilaritySearch(ctx, "x", 5)
		require.NoError(t, err)
		assert.Equal(t, texts, contents(docs))
	})

	t.Run("recreated collection is empty", func(t *testing.T) {
		require.NoError(t, s.DeleteCollection(ctx))
		s2, err := New(ctx, backend, embedder, WithCollectionName("lifecycle"))
		require.NoError(t, err)
		c, err := s2.Collection(ctx)
		require.NoError(t, err)
		assert.Zero(t, c.PointCount)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := s.AddTexts(ctx, fixtureTexts, fixtureMetadatas()[:1], nil)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("add documents keeps ids", func(t *testing.T) {
		ids, err := s.AddDocuments(ctx, []schema.Document{
			{ID: "doc-1", PageContent: "foo", Metadata: map[string]any{"page": "0"}},
			{PageContent: "bar"},
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "doc-1", ids[0])
		assert.NotEmpty(t, ids[1])
	})
}

func TestMultiCollection(t *testing.T) {
	ctx := context.Background()
	backend := vectordb.NewMemory()
	embedder := embedding.NewFakeEmbedder(10)

	_, err := FromTexts(ctx, backend, embedder, []string{"foo"}, nil, nil, WithCollectionName("test_collection_1"))
	require.NoError(t, err)
	_, err = FromTexts(ctx, backend, embedder, []string{"bar", "baz"}, nil, nil, WithCollectionName("test_collection_2"))
	require.NoError(t, err)

	t.Run("searches all collections", func(t *testing.T) {
		m, err := NewMultiCollection(backend, embedder, []string{"test_collection_1", "test_collection_2"})
		require.NoError(t, err)

		scored, err := m.SimilaritySearchWithScore(ctx, "foo", 3)
		require.NoError(t, err)
		require.Len(t, scored, 3)
		// foo and bar both sit at distance 0; baz at 1.
		assert.InDelta(t, 1.0, scored[0].Score, 1e-6)
		assert.InDelta(t, 1.0, scored[1].Score, 1e-6)
		assert.Equal(t, "baz", scored[2].Document.PageContent)
	})

	t.Run("unknown names are skipped", func(t *testing.T) {
		m, err := NewMultiCollection(backend, embedder, []string{"test_collection_1", "absent"})
		require.NoError(t, err)
		docs, err := m.SimilaritySearch(ctx, "foo", 4)
		require.NoError(t, err)
		assert.Equal(t, []string{"foo"}, contents(docs))
	})

	t.Run("no collections found", func(t *testing.T) {
		m, err := NewMultiCollection(backend, embedder, []string{"absent"})
		require.NoError(t, err)
		_, err = m.SimilaritySearch(ctx, "foo", 1)
		assert.ErrorIs(t, err, ErrNoCollectionsFound)

		_, err = NewMultiCollection(backend, embedder, nil)
		assert.ErrorIs(t, err, ErrNoCollectionsFound)
	})

	t.Run("read only", func(t *testing.T) {
		m, err := NewMultiCollection(backend, embedder, []string{"test_collection_1"})
		require.NoError(t, err)

		_, err = m.AddTexts(ctx, []string{"foo"}, nil, nil)
		assert.ErrorIs(t, err, ErrReadOnly)
		_, err = m.AddDocuments(ctx, []schema.Document{{PageContent: "foo"}})
		assert.ErrorIs(t, err, ErrReadOnly)
		_, err = m.AddEmbeddings(ctx, nil, nil, nil, nil)
		assert.ErrorIs(t, err, ErrReadOnly)
		assert.ErrorIs(t, m.Delete(ctx, []string{"x"}), ErrReadOnly)
		assert.ErrorIs(t, m.DeleteCollection(ctx), ErrReadOnly)
		assert.Equal(t, []string{"test_collection_1"}, m.CollectionNames())
	})
}
