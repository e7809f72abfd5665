package vectordb

import "context"

// Service is the storage contract the vector store is written against.
// It provides a database-agnostic abstraction for vector similarity search,
// so the store logic can run against CrateDB or an in-memory fake.
//
// Example usage:
//
//	func NewSearchService(db vectordb.Service) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	// Works with any implementation:
//	// - cratedb.NewAdapter(client, logger)
type Service interface {
	// Migrate prepares the storage for vectors of the given width and returns
	// the effective width. A width of 0 adopts the width of existing storage;
	// ErrMissingDimensions is returned when there is none.
	Migrate(ctx context.Context, width int) (int, error)

	// Search performs similarity search across one or more requests.
	// Returns:
	//   - results: slice of result slices, one []SearchResult per request
	//   - err: combined error (per-request errors and systemic errors joined)
	//
	// Results of one request are ordered by descending similarity, ties by id.
	//
	// Example:
	//   results, err := db.Search(ctx,
	//       SearchRequest{CollectionNames: []string{"docs"}, Vector: vec1, TopK: 10},
	//       SearchRequest{CollectionNames: []string{"docs", "faq"}, Vector: vec2, TopK: 5, Filter: f},
	//   )
	Search(ctx context.Context, requests ...SearchRequest) ([][]SearchResult, error)

	// Insert adds or replaces embeddings in a collection.
	// Uses batch processing internally for efficiency.
	Insert(ctx context.Context, collectionName string, inputs []EmbeddingInput) error

	// Delete removes records by their IDs from a collection.
	// Unknown IDs are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// EnsureCollection creates a collection if it doesn't exist.
	// Safe to call multiple times, returns the existing collection if present.
	EnsureCollection(ctx context.Context, name string, metadata map[string]any) (*Collection, error)

	// GetCollection retrieves a collection by name.
	// Returns ErrCollectionNotFound when it does not exist.
	GetCollection(ctx context.Context, name string) (*Collection, error)

	// GetCollections resolves several names in one lookup; unknown names are skipped.
	GetCollections(ctx context.Context, names []string) ([]Collection, error)

	// ListCollections returns names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteCollection removes a collection together with its records.
	// Unknown names are ignored.
	DeleteCollection(ctx context.Context, name string) error
}
