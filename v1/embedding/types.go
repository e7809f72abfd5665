package embedding

import "context"

// Embedder turns text into fixed-length vectors.
// Vector stores and the semantic cache depend on this interface only.
type Embedder interface {
	// EmbedDocuments returns one vector per text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery returns the vector used to search for text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Dimensioned is implemented by embedders that know their vector width up
// front. Vector stores use it to create the embedding table before the first
// insert.
type Dimensioned interface {
	Dimensions() int
}

// Provider is the transport behind Client.
type Provider interface {
	// Create generates embeddings for the given texts using the specified model.
	Create(ctx context.Context, model string, texts ...string) ([][]float32, error)
}
