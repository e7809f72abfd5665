package vectorstore

import (
	"errors"

	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

var (
	// ErrReadOnly is returned by every write operation of a MultiCollection.
	ErrReadOnly = errors.New("the adapter for querying multiple collections can not be used for indexing documents")

	// ErrLengthMismatch is returned when the texts, embeddings, metadatas or
	// ids passed to one call have different lengths.
	ErrLengthMismatch = errors.New("number of texts, embeddings, metadatas and ids must match")

	// ErrInvalidK is returned for a non-positive result count.
	ErrInvalidK = errors.New("k must be positive")

	// Re-exported so callers of this package need not import vectordb.
	ErrMissingDimensions  = vectordb.ErrMissingDimensions
	ErrCollectionNotFound = vectordb.ErrCollectionNotFound
	ErrNoCollectionsFound = vectordb.ErrNoCollectionsFound
)
