package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectorstore"
)

// Metadata keys of a semantic cache record.
const (
	metaLLMString = "llm_string"
	metaPrompt    = "prompt"
	metaReturnVal = "return_val"
)

// SemanticCache returns cached generations for prompts whose embedding is
// close to a cached prompt. Each model configuration gets its own collection.
type SemanticCache struct {
	backend  vectordb.Service
	embedder embedding.Embedder
	opts     options

	mu      sync.Mutex
	stores  map[string]*vectorstore.Store
	readers map[string]*vectorstore.MultiCollection
}

// NewSemanticCache checks the embedding table can hold the embedder's vectors.
func NewSemanticCache(ctx context.Context, backend vectordb.Service, embedder embedding.Embedder, opts ...Option) (*SemanticCache, error) {
	c := &SemanticCache{
		backend:  backend,
		embedder: embedder,
		opts:     newOptions(opts),
		stores:   map[string]*vectorstore.Store{},
		readers:  map[string]*vectorstore.MultiCollection{},
	}

	width := c.opts.embeddingLength
	if d, ok := embedder.(embedding.Dimensioned); ok && width == 0 {
		width = d.Dimensions()
	}
	if _, err := backend.Migrate(ctx, width); err != nil {
		return nil, err
	}
	return c, nil
}

// CollectionName returns the collection holding the entries of llm.
func (c *SemanticCache) CollectionName(llm string) string {
	sum := sha256.Sum256([]byte(llm))
	return c.opts.collectionPrefix + hex.EncodeToString(sum[:])[:32]
}

func (c *SemanticCache) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := c.opts.tracer.StartSpan(ctx, "llmcache.semantic."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		c.opts.metrics.RecordOperation(component, "semantic_"+operation, start, err)
		c.opts.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (c *SemanticCache) storeOptions() []vectorstore.Option {
	return []vectorstore.Option{
		vectorstore.WithEmbeddingLength(c.opts.embeddingLength),
		// Scores are raw distances so the threshold is a maximum distance.
		vectorstore.WithRelevanceScoreFunc(func(d float64) float64 { return d }),
		vectorstore.WithLogger(c.opts.logger),
		vectorstore.WithTracer(c.opts.tracer),
		vectorstore.WithMetrics(c.opts.metrics),
	}
}

// reader returns a read-only view of the collection of llm. It never creates
// the collection.
func (c *SemanticCache) reader(llm string) (*vectorstore.MultiCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.readers[llm]; ok {
		return r, nil
	}
	r, err := vectorstore.NewMultiCollection(c.backend, c.embedder, []string{c.CollectionName(llm)}, c.storeOptions()...)
	if err != nil {
		return nil, err
	}
	c.readers[llm] = r
	return r, nil
}

// store opens the collection of llm for writing once per cache.
func (c *SemanticCache) store(ctx context.Context, llm string) (*vectorstore.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.stores[llm]; ok {
		return s, nil
	}
	opts := append(c.storeOptions(), vectorstore.WithCollectionName(c.CollectionName(llm)))
	s, err := vectorstore.New(ctx, c.backend, c.embedder, opts...)
	if err != nil {
		return nil, err
	}
	c.stores[llm] = s
	return s, nil
}

// Lookup returns the generations cached for the nearest prompt when it lies
// within the distance threshold.
func (c *SemanticCache) Lookup(ctx context.Context, prompt, llm string) (_ []schema.Generation, _ bool, err error) {
	ctx, _, done := c.begin(ctx, "lookup")
	defer func() { done(err) }()

	r, err := c.reader(llm)
	if err != nil {
		return nil, false, err
	}
	hits, err := r.SimilaritySearchWithScore(ctx, prompt, 1)
	if errors.Is(err, vectordb.ErrCollectionNotFound) || errors.Is(err, vectordb.ErrNoCollectionsFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(hits) == 0 || hits[0].Score > c.opts.scoreThreshold {
		return nil, false, nil
	}

	raw, _ := hits[0].Document.Metadata[metaReturnVal].(string)
	gens, err := c.opts.serializer.Unmarshal([]byte(raw))
	if err != nil {
		c.opts.logger.Warn("[LLMCache] could not decode cached generations", err, map[string]interface{}{
			"collection": c.CollectionName(llm),
		})
		return nil, false, nil
	}
	return gens, true, nil
}

// Update embeds prompt and stores gens with it.
func (c *SemanticCache) Update(ctx context.Context, prompt, llm string, gens []schema.Generation) (err error) {
	ctx, _, done := c.begin(ctx, "update")
	defer func() { done(err) }()

	data, err := c.opts.serializer.Marshal(gens)
	if err != nil {
		return fmt.Errorf("failed to encode generations: %w", err)
	}
	s, err := c.store(ctx, llm)
	if err != nil {
		return err
	}
	_, err = s.AddTexts(ctx, []string{prompt}, []map[string]any{{
		metaLLMString: llm,
		metaPrompt:    prompt,
		metaReturnVal: string(data),
	}}, nil)
	return err
}

// Clear drops the collection of WithLLMString. Without it every collection
// carrying the cache's prefix is dropped.
func (c *SemanticCache) Clear(ctx context.Context, opts ...ClearOption) (err error) {
	ctx, _, done := c.begin(ctx, "clear")
	defer func() { done(err) }()

	co := newClearOptions(opts)
	if co.llmString != "" {
		return c.backend.DeleteCollection(ctx, c.CollectionName(co.llmString))
	}

	names, err := c.backend.ListCollections(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if strings.HasPrefix(name, c.opts.collectionPrefix) {
			errs = append(errs, c.backend.DeleteCollection(ctx, name))
		}
	}
	return errors.Join(errs...)
}
