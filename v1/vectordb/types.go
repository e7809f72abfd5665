package vectordb

// SearchRequest represents a single similarity search query.
// Use with Service.Search() for single or batch queries.
type SearchRequest struct {
	// CollectionNames are the collections searched together; results from
	// all of them are ranked in one list.
	CollectionNames []string `json:"collectionNames"`

	// Vector is the query embedding to find similar vectors for
	Vector []float32 `json:"vector"`

	// TopK is the maximum number of results to return
	TopK int `json:"maxResults"`

	// Filter is optional metadata filtering; nil matches everything
	Filter Filter `json:"-"`

	// WithVectors requests the stored embeddings in the results
	WithVectors bool `json:"withVectors,omitempty"`
}

// SearchResult represents a single search result with its similarity score.
type SearchResult struct {
	// ID is the unique identifier of the matched record
	ID string `json:"id"`

	// CollectionName identifies which collection this result came from
	CollectionName string `json:"collectionName,omitempty"`

	// Document is the stored text
	Document string `json:"document"`

	// Metadata contains the metadata stored with the vector
	Metadata map[string]any `json:"metadata"`

	// Vector is the stored embedding (only populated if requested)
	Vector []float32 `json:"vector,omitempty"`

	// Score is the raw similarity reported by the database (higher = more similar)
	Score float64 `json:"score"`

	// Distance is the squared euclidean distance (lower = more similar)
	Distance float64 `json:"distance"`
}

// EmbeddingInput is the input for inserting vectors into a collection.
type EmbeddingInput struct {
	// ID is the unique identifier for this embedding
	ID string `json:"id"`

	// Vector is the dense embedding representation
	Vector []float32 `json:"vector"`

	// Document is the text the vector was computed from
	Document string `json:"document"`

	// Metadata is optional metadata to store with the vector
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Collection contains metadata about a vector collection.
type Collection struct {
	// ID is the generated uuid embedding records refer to
	ID string `json:"id"`

	// Name is the unique identifier of the collection
	Name string `json:"name"`

	// Metadata is free-form data attached at creation
	Metadata map[string]any `json:"metadata,omitempty"`

	// VectorSize is the dimension of vectors in this collection
	VectorSize int `json:"vectorSize"`

	// PointCount is the number of stored records
	PointCount uint64 `json:"pointCount"`
}
