package vectorstore

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// MultiCollection searches several collections at once. Results of all
// collections are ranked together. It cannot write.
type MultiCollection struct {
	*reader
}

// NewMultiCollection returns a read-only store over the named collections.
// Names are resolved on every search; names that do not exist are skipped.
func NewMultiCollection(backend vectordb.Service, embedder embedding.Embedder, names []string, opts ...Option) (*MultiCollection, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no collection names given", vectordb.ErrNoCollectionsFound)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MultiCollection{reader: &reader{
		backend:  backend,
		embedder: embedder,
		names:    append([]string(nil), names...),
		opts:     o,
		mapErr:   collectionsMissing,
	}}, nil
}

// CollectionNames returns the names given to NewMultiCollection.
func (m *MultiCollection) CollectionNames() []string {
	return append([]string(nil), m.names...)
}

func (m *MultiCollection) AddTexts(context.Context, []string, []map[string]any, []string) ([]string, error) {
	return nil, ErrReadOnly
}

func (m *MultiCollection) AddDocuments(context.Context, []schema.Document) ([]string, error) {
	return nil, ErrReadOnly
}

func (m *MultiCollection) AddEmbeddings(context.Context, []string, [][]float32, []map[string]any, []string) ([]string, error) {
	return nil, ErrReadOnly
}

func (m *MultiCollection) Delete(context.Context, []string) error {
	return ErrReadOnly
}

func (m *MultiCollection) DeleteCollection(context.Context) error {
	return ErrReadOnly
}
