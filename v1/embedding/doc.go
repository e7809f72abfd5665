// Package embedding provides the embedding function consumed by the vector
// store and the semantic cache.
//
// # Overview
//
// Embedder is the only contract the adapters depend on:
//
//	type Embedder interface {
//		EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
//		EmbedQuery(ctx context.Context, text string) ([]float32, error)
//	}
//
// Client implements it against any OpenAI-compatible /embeddings endpoint.
// Large inputs are split into batches that run concurrently (bounded by
// Config.Concurrency) while preserving input order.
//
//	client, err := embedding.NewClient(embedding.NewConfig())
//	vectors, err := client.EmbedDocuments(ctx, []string{"foo", "bar"})
//
// Embedders that also implement Dimensioned let the vector store create its
// FLOAT_VECTOR column before the first insert.
//
// # Test Embedders
//
// FakeEmbedder and ConsistentFakeEmbedder produce deterministic vectors and
// are used by the test suites and examples.
//
// # Configuration
//
//	EMBEDDING_ENDPOINT=https://inference.example.com/v1
//	EMBEDDING_SERVICE_TOKEN=...
//	EMBEDDING_MODEL=text-embedding-3-small
//	EMBEDDING_DIMENSIONS=1536
//	EMBEDDING_BATCH_SIZE=64
//	EMBEDDING_CONCURRENCY=4
//	EMBEDDING_HTTP_TIMEOUT_SECONDS=30
package embedding
