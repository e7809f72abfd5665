package vectordb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter is returned for malformed filter expressions: unknown
	// operators, wrong operand shapes, bad field names or combinator bodies.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrCollectionNotFound is returned when a collection referenced by name does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrNoCollectionsFound is returned when none of several collection names resolve.
	ErrNoCollectionsFound = errors.New("no collections found")

	// ErrDimensionMismatch is returned when a vector's width differs from the collection's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDuplicateCollection is returned when a collection with the same name was
	// created concurrently.
	ErrDuplicateCollection = errors.New("duplicate collection name")

	// ErrMissingDimensions is returned when the embedding width can neither be
	// configured nor inferred from existing data.
	ErrMissingDimensions = errors.New("collection can't be accessed without specifying dimension size of embedding vectors")
)

func invalidFilter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}
