package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// Store indexes texts into one collection and searches it.
type Store struct {
	*reader

	width    int
	metadata map[string]any
}

// New opens the store's collection. The vector width comes from
// WithEmbeddingLength or, when the embedder reports it, from
// embedding.Dimensioned; without either an existing embedding table decides.
func New(ctx context.Context, backend vectordb.Service, embedder embedding.Embedder, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	width := o.embeddingLength
	if width == 0 {
		if d, ok := embedder.(embedding.Dimensioned); ok {
			width = d.Dimensions()
		}
	}

	width, err := backend.Migrate(ctx, width)
	if err != nil {
		return nil, err
	}

	s := &Store{
		reader: &reader{
			backend:  backend,
			embedder: embedder,
			names:    []string{o.collectionName},
			opts:     o,
		},
		width:    width,
		metadata: o.collectionMetadata,
	}

	if o.preDelete {
		if err := s.DeleteCollection(ctx); err != nil {
			return nil, err
		}
	}
	if _, err := backend.EnsureCollection(ctx, o.collectionName, o.collectionMetadata); err != nil {
		return nil, err
	}
	return s, nil
}

// FromTexts opens a store and indexes texts into it.
func FromTexts(ctx context.Context, backend vectordb.Service, embedder embedding.Embedder,
	texts []string, metadatas []map[string]any, ids []string, opts ...Option) (*Store, error) {
	s, err := New(ctx, backend, embedder, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddTexts(ctx, texts, metadatas, ids); err != nil {
		return nil, err
	}
	return s, nil
}

// CollectionName returns the name of the store's collection.
func (s *Store) CollectionName() string {
	return s.names[0]
}

// Width returns the vector width of the embedding table.
func (s *Store) Width() int {
	return s.width
}

// AddTexts embeds and stores texts. metadatas and ids may be nil; otherwise
// they must have one entry per text. Missing ids are generated.
func (s *Store) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	return s.AddEmbeddings(ctx, texts, vectors, metadatas, ids)
}

// AddDocuments stores documents, keeping their IDs where set.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	texts := make([]string, len(docs))
	metadatas := make([]map[string]any, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
		metadatas[i] = doc.Metadata
		ids[i] = doc.ID
	}
	return s.AddTexts(ctx, texts, metadatas, ids)
}

// AddEmbeddings stores precomputed vectors. Records with an existing id are
// replaced.
func (s *Store) AddEmbeddings(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]any, ids []string) (_ []string, err error) {
	ctx, span, done := s.begin(ctx, "add_embeddings")
	defer func() { done(err) }()

	if len(vectors) != len(texts) ||
		(metadatas != nil && len(metadatas) != len(texts)) ||
		(ids != nil && len(ids) != len(texts)) {
		return nil, ErrLengthMismatch
	}
	s.opts.tracer.SetAttributes(span, map[string]interface{}{
		"collection": s.CollectionName(),
		"records":    len(texts),
	})

	out := make([]string, len(texts))
	inputs := make([]vectordb.EmbeddingInput, len(texts))
	for i, text := range texts {
		id := ""
		if ids != nil {
			id = ids[i]
		}
		if id == "" {
			v7, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("failed to generate id: %w", err)
			}
			id = v7.String()
		}
		var metadata map[string]any
		if metadatas != nil {
			metadata = metadatas[i]
		}
		out[i] = id
		inputs[i] = vectordb.EmbeddingInput{ID: id, Vector: vectors[i], Document: text, Metadata: metadata}
	}

	err = s.backend.Insert(ctx, s.CollectionName(), inputs)
	if errors.Is(err, vectordb.ErrCollectionNotFound) {
		// Dropped since the store was opened.
		if _, err = s.backend.EnsureCollection(ctx, s.CollectionName(), s.metadata); err == nil {
			err = s.backend.Insert(ctx, s.CollectionName(), inputs)
		}
	}
	if err != nil {
		return nil, err
	}

	s.opts.logger.Debug("[VectorStore] added records", nil, map[string]interface{}{
		"collection": s.CollectionName(),
		"records":    len(inputs),
	})
	return out, nil
}

// Delete removes records by id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) (err error) {
	ctx, _, done := s.begin(ctx, "delete")
	defer func() { done(err) }()

	return s.backend.Delete(ctx, s.CollectionName(), ids)
}

// DeleteCollection drops the collection and all of its records.
func (s *Store) DeleteCollection(ctx context.Context) (err error) {
	ctx, _, done := s.begin(ctx, "delete_collection")
	defer func() { done(err) }()

	s.opts.logger.Info("[VectorStore] deleting collection", nil, map[string]interface{}{
		"collection": s.CollectionName(),
	})
	return s.backend.DeleteCollection(ctx, s.CollectionName())
}

// Collection returns the collection with its record count.
func (s *Store) Collection(ctx context.Context) (*vectordb.Collection, error) {
	return s.backend.GetCollection(ctx, s.CollectionName())
}
