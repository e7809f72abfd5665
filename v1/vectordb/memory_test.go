package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMigrate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Migrate(ctx, 0)
	assert.ErrorIs(t, err, ErrMissingDimensions)

	width, err := m.Migrate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, width)

	width, err = m.Migrate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, width)

	_, err = m.Migrate(ctx, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Migrate(ctx, 2)
	require.NoError(t, err)
	_, err = m.EnsureCollection(ctx, "a", nil)
	require.NoError(t, err)
	_, err = m.EnsureCollection(ctx, "b", nil)
	require.NoError(t, err)

	require.NoError(t, m.Insert(ctx, "a", []EmbeddingInput{
		{ID: "1", Vector: []float32{1, 0}, Document: "one", Metadata: map[string]any{"page": "0"}},
		{ID: "2", Vector: []float32{1, 1}, Document: "two", Metadata: map[string]any{"page": "1"}},
	}))
	require.NoError(t, m.Insert(ctx, "b", []EmbeddingInput{
		{ID: "3", Vector: []float32{1, 2}, Document: "three", Metadata: map[string]any{"page": "2"}},
	}))

	t.Run("ranks by distance across collections", func(t *testing.T) {
		res, err := m.Search(ctx, SearchRequest{CollectionNames: []string{"a", "b"}, Vector: []float32{1, 0}, TopK: 3})
		require.NoError(t, err)
		require.Len(t, res[0], 3)
		assert.Equal(t, []string{"1", "2", "3"}, []string{res[0][0].ID, res[0][1].ID, res[0][2].ID})
		assert.InDelta(t, 1.0, res[0][0].Score, 1e-9)
		assert.InDelta(t, 0.5, res[0][1].Score, 1e-9)
		assert.InDelta(t, 4.0, res[0][2].Distance, 1e-9)
		assert.Equal(t, "b", res[0][2].CollectionName)
		assert.Nil(t, res[0][0].Vector)
	})

	t.Run("filter", func(t *testing.T) {
		res, err := m.Search(ctx, SearchRequest{
			CollectionNames: []string{"a", "b"},
			Vector:          []float32{1, 0},
			TopK:            3,
			Filter:          NewMatchAny("page", "0", "2"),
			WithVectors:     true,
		})
		require.NoError(t, err)
		require.Len(t, res[0], 2)
		assert.Equal(t, "one", res[0][0].Document)
		assert.Equal(t, "three", res[0][1].Document)
		assert.Equal(t, []float32{1, 2}, res[0][1].Vector)
	})

	t.Run("missing collections", func(t *testing.T) {
		_, err := m.Search(ctx, SearchRequest{CollectionNames: []string{"x"}, Vector: []float32{1, 0}, TopK: 1})
		assert.ErrorIs(t, err, ErrCollectionNotFound)
		_, err = m.Search(ctx, SearchRequest{CollectionNames: []string{"x", "y"}, Vector: []float32{1, 0}, TopK: 1})
		assert.ErrorIs(t, err, ErrNoCollectionsFound)
	})

	t.Run("width", func(t *testing.T) {
		err := m.Insert(ctx, "a", []EmbeddingInput{{Vector: []float32{1}}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("get collections", func(t *testing.T) {
		cols, err := m.GetCollections(ctx, []string{"b", "x", "a", "b"})
		require.NoError(t, err)
		require.Len(t, cols, 2)
		assert.Equal(t, "a", cols[0].Name)
		assert.Equal(t, "b", cols[1].Name)
		assert.NotEmpty(t, cols[0].ID)

		// a repeated name is searched once
		res, err := m.Search(ctx, SearchRequest{CollectionNames: []string{"b", "b"}, Vector: []float32{1, 0}, TopK: 5})
		require.NoError(t, err)
		assert.Len(t, res[0], 1)
	})

	t.Run("delete and cascade", func(t *testing.T) {
		require.NoError(t, m.Delete(ctx, "a", []string{"1", "missing"}))
		c, err := m.GetCollection(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), c.PointCount)

		require.NoError(t, m.DeleteCollection(ctx, "a"))
		c, err = m.EnsureCollection(ctx, "a", nil)
		require.NoError(t, err)
		assert.Zero(t, c.PointCount)

		names, err := m.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names)
	})
}
