package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Client is the public entrypoint for computing embeddings.
// It implements Embedder and Dimensioned.
type Client struct {
	provider Provider
	cfg      *Config
}

// NewClient validates cfg and builds the OpenAI-compatible inference provider.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	p, err := newInferenceProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return &Client{provider: p, cfg: cfg}, nil
}

// NewClientWithProvider builds a client around a custom transport.
func NewClientWithProvider(cfg *Config, p Provider) *Client {
	return &Client{provider: p, cfg: cfg}
}

// EmbedDocuments splits texts into batches of cfg.BatchSize and runs up to
// cfg.Concurrency requests at once. The result keeps input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := c.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Concurrency, 1))

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vectors, err := c.provider.Create(gctx, c.cfg.Model, texts[start:end]...)
			if err != nil {
				return fmt.Errorf("embedding: batch [%d:%d] failed: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embedding: batch [%d:%d] returned %d vectors", start, end, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.provider.Create(ctx, c.cfg.Model, text)
	if err != nil {
		return nil, fmt.Errorf("embedding: query failed: %w", err)
	}
	return vectors[0], nil
}

// Dimensions returns the configured vector width, 0 when unknown.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

// Close allows the client to release any internal resources used by the provider.
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
