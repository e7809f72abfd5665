package vectorstore

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

// SearchType selects the search a Retriever runs.
type SearchType string

const (
	SearchSimilarity               SearchType = "similarity"
	SearchSimilarityScoreThreshold SearchType = "similarity_score_threshold"
	SearchMMR                      SearchType = "mmr"

	DefaultK = 4
)

// Retriever fetches documents relevant to a query from a Store or a
// MultiCollection. It is safe for concurrent use.
type Retriever struct {
	r          *reader
	searchType SearchType
	k          int
	opts       []SearchOption
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

func WithSearchType(t SearchType) RetrieverOption {
	return func(rt *Retriever) { rt.searchType = t }
}

func WithK(k int) RetrieverOption {
	return func(rt *Retriever) { rt.k = k }
}

// WithSearchOptions passes filter, threshold, fetchK and lambda settings to
// every search.
func WithSearchOptions(opts ...SearchOption) RetrieverOption {
	return func(rt *Retriever) { rt.opts = append(rt.opts, opts...) }
}

// AsRetriever wraps the store in a Retriever. Defaults: similarity search, k=4.
func (r *reader) AsRetriever(opts ...RetrieverOption) *Retriever {
	rt := &Retriever{r: r, searchType: SearchSimilarity, k: DefaultK}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Invoke returns the documents relevant to query.
func (rt *Retriever) Invoke(ctx context.Context, query string) ([]schema.Document, error) {
	switch rt.searchType {
	case SearchSimilarity:
		return rt.r.SimilaritySearch(ctx, query, rt.k, rt.opts...)
	case SearchSimilarityScoreThreshold:
		if newSearchOptions(rt.opts).threshold == nil {
			return nil, fmt.Errorf("search type %q requires a score threshold", rt.searchType)
		}
		scored, err := rt.r.SimilaritySearchWithRelevanceScores(ctx, query, rt.k, rt.opts...)
		if err != nil {
			return nil, err
		}
		return documents(scored), nil
	case SearchMMR:
		return rt.r.MaxMarginalRelevanceSearch(ctx, query, rt.k, rt.opts...)
	default:
		return nil, fmt.Errorf("unsupported search type %q", rt.searchType)
	}
}
