package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

const component = "vectorstore"

// ScoredDocument is a search hit with its score. Higher scores are better.
type ScoredDocument struct {
	Document schema.Document
	Score    float64
}

// reader implements the search operations shared by Store and
// MultiCollection.
type reader struct {
	backend  vectordb.Service
	embedder embedding.Embedder
	names    []string
	opts     options

	// mapErr rewrites backend errors, if set.
	mapErr func(error) error
}

func (r *reader) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := r.opts.tracer.StartSpan(ctx, "vectorstore."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		r.opts.metrics.RecordOperation(component, operation, start, err)
		r.opts.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (r *reader) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

// query runs one ranked search over the reader's collections.
func (r *reader) query(ctx context.Context, vector []float32, k int, so searchOptions, withVectors bool) ([]vectordb.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	if so.err != nil {
		return nil, so.err
	}

	results, err := r.backend.Search(ctx, vectordb.SearchRequest{
		CollectionNames: r.names,
		Vector:          vector,
		TopK:            k,
		Filter:          so.filter,
		WithVectors:     withVectors,
	})
	if err != nil {
		if r.mapErr != nil {
			err = r.mapErr(err)
		}
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *reader) scored(results []vectordb.SearchResult) []ScoredDocument {
	out := make([]ScoredDocument, 0, len(results))
	for _, res := range results {
		out = append(out, ScoredDocument{Document: toDocument(res), Score: r.opts.relevance(res.Distance)})
	}
	return out
}

// SimilaritySearch returns the k documents nearest to query.
func (r *reader) SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error) {
	scored, err := r.SimilaritySearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}
	return documents(scored), nil
}

// SimilaritySearchWithScore returns the k documents nearest to query, scored
// by the relevance function.
func (r *reader) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...SearchOption) (_ []ScoredDocument, err error) {
	ctx, _, done := r.begin(ctx, "similarity_search")
	defer func() { done(err) }()

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := r.query(ctx, vector, k, newSearchOptions(opts), false)
	if err != nil {
		return nil, err
	}
	return r.scored(results), nil
}

// SimilaritySearchByVector returns the k documents nearest to vector.
func (r *reader) SimilaritySearchByVector(ctx context.Context, vector []float32, k int, opts ...SearchOption) ([]schema.Document, error) {
	scored, err := r.SimilaritySearchByVectorWithScore(ctx, vector, k, opts...)
	if err != nil {
		return nil, err
	}
	return documents(scored), nil
}

func (r *reader) SimilaritySearchByVectorWithScore(ctx context.Context, vector []float32, k int, opts ...SearchOption) (_ []ScoredDocument, err error) {
	ctx, _, done := r.begin(ctx, "similarity_search_by_vector")
	defer func() { done(err) }()

	results, err := r.query(ctx, vector, k, newSearchOptions(opts), false)
	if err != nil {
		return nil, err
	}
	return r.scored(results), nil
}

// SimilaritySearchWithRelevanceScores is SimilaritySearchWithScore that also
// honors WithScoreThreshold.
func (r *reader) SimilaritySearchWithRelevanceScores(ctx context.Context, query string, k int, opts ...SearchOption) ([]ScoredDocument, error) {
	scored, err := r.SimilaritySearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}

	for _, sd := range scored {
		if sd.Score < 0 || sd.Score > 1 {
			r.opts.logger.Warn("[VectorStore] relevance score outside [0, 1]", nil, map[string]interface{}{
				"score": sd.Score,
			})
			break
		}
	}

	so := newSearchOptions(opts)
	if so.threshold == nil {
		return scored, nil
	}
	kept := scored[:0]
	for _, sd := range scored {
		if sd.Score >= *so.threshold {
			kept = append(kept, sd)
		}
	}
	if len(kept) == 0 {
		r.opts.logger.Debug("[VectorStore] no documents above relevance threshold", nil, map[string]interface{}{
			"threshold": *so.threshold,
		})
	}
	return kept, nil
}

// MaxMarginalRelevanceSearch selects k diverse documents out of the
// WithFetchK nearest candidates.
func (r *reader) MaxMarginalRelevanceSearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error) {
	scored, err := r.MaxMarginalRelevanceSearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}
	return documents(scored), nil
}

func (r *reader) MaxMarginalRelevanceSearchWithScore(ctx context.Context, query string, k int, opts ...SearchOption) ([]ScoredDocument, error) {
	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.MaxMarginalRelevanceSearchByVectorWithScore(ctx, vector, k, opts...)
}

func (r *reader) MaxMarginalRelevanceSearchByVector(ctx context.Context, vector []float32, k int, opts ...SearchOption) ([]schema.Document, error) {
	scored, err := r.MaxMarginalRelevanceSearchByVectorWithScore(ctx, vector, k, opts...)
	if err != nil {
		return nil, err
	}
	return documents(scored), nil
}

func (r *reader) MaxMarginalRelevanceSearchByVectorWithScore(ctx context.Context, vector []float32, k int, opts ...SearchOption) (_ []ScoredDocument, err error) {
	ctx, _, done := r.begin(ctx, "mmr_search")
	defer func() { done(err) }()

	if k <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	so := newSearchOptions(opts)
	fetchK := max(so.fetchK, k)

	candidates, err := r.query(ctx, vector, fetchK, so, true)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Vector
	}
	picked := maximalMarginalRelevance(vector, vectors, k, so.lambda)

	out := make([]ScoredDocument, 0, len(picked))
	for _, i := range picked {
		out = append(out, ScoredDocument{
			Document: toDocument(candidates[i]),
			Score:    r.opts.relevance(candidates[i].Distance),
		})
	}
	return out, nil
}

func toDocument(res vectordb.SearchResult) schema.Document {
	metadata := res.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return schema.Document{ID: res.ID, PageContent: res.Document, Metadata: metadata}
}

func documents(scored []ScoredDocument) []schema.Document {
	out := make([]schema.Document, len(scored))
	for i, sd := range scored {
		out[i] = sd.Document
	}
	return out
}

// collectionsMissing turns a lookup miss into ErrNoCollectionsFound.
func collectionsMissing(err error) error {
	if errors.Is(err, vectordb.ErrCollectionNotFound) && !errors.Is(err, vectordb.ErrNoCollectionsFound) {
		return fmt.Errorf("%w: %w", vectordb.ErrNoCollectionsFound, err)
	}
	return err
}
