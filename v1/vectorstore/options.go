package vectorstore

import (
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

const (
	// DefaultCollectionName is used when WithCollectionName is not given.
	DefaultCollectionName = "langchain"

	DefaultFetchK = 20
	DefaultLambda = 0.5
)

// Logger is the logging surface used by the stores.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type options struct {
	collectionName     string
	collectionMetadata map[string]any
	embeddingLength    int
	preDelete          bool
	relevance          RelevanceScoreFunc
	logger             Logger
	tracer             *tracer.Tracer
	metrics            metrics.OperationRecorder
}

func defaultOptions() options {
	return options{
		collectionName: DefaultCollectionName,
		relevance:      DefaultRelevanceScore,
		logger:         logger.NewNop(),
		tracer:         tracer.NewNoop(),
		metrics:        metrics.Nop{},
	}
}

// Option configures a Store or a MultiCollection.
type Option func(*options)

// WithCollectionName selects the collection a Store writes to.
func WithCollectionName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.collectionName = name
		}
	}
}

// WithCollectionMetadata is stored with the collection when it is created.
func WithCollectionMetadata(metadata map[string]any) Option {
	return func(o *options) { o.collectionMetadata = metadata }
}

// WithEmbeddingLength fixes the vector width instead of asking the embedder.
func WithEmbeddingLength(n int) Option {
	return func(o *options) { o.embeddingLength = n }
}

// WithPreDeleteCollection drops the collection and its records when the
// store is opened.
func WithPreDeleteCollection() Option {
	return func(o *options) { o.preDelete = true }
}

// WithRelevanceScoreFunc replaces DefaultRelevanceScore.
func WithRelevanceScoreFunc(fn RelevanceScoreFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.relevance = fn
		}
	}
}

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t *tracer.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithMetrics(m metrics.OperationRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

type searchOptions struct {
	filter    vectordb.Filter
	err       error
	threshold *float64
	fetchK    int
	lambda    float64
}

func newSearchOptions(opts []SearchOption) searchOptions {
	so := searchOptions{fetchK: DefaultFetchK, lambda: DefaultLambda}
	for _, opt := range opts {
		opt(&so)
	}
	return so
}

// SearchOption tunes a single search call.
type SearchOption func(*searchOptions)

// WithFilter restricts results to records whose metadata matches f.
func WithFilter(f vectordb.Filter) SearchOption {
	return func(so *searchOptions) { so.filter = f }
}

// WithFilterMap parses expr with vectordb.ParseFilter. A parse error is
// returned by the search it was passed to.
func WithFilterMap(expr map[string]any) SearchOption {
	return func(so *searchOptions) {
		so.filter, so.err = vectordb.ParseFilter(expr)
	}
}

// WithScoreThreshold drops results whose relevance score is below t.
// Only the relevance-score searches apply it.
func WithScoreThreshold(t float64) SearchOption {
	return func(so *searchOptions) { so.threshold = &t }
}

// WithFetchK sets how many candidates MMR selects from.
func WithFetchK(n int) SearchOption {
	return func(so *searchOptions) {
		if n > 0 {
			so.fetchK = n
		}
	}
}

// WithLambda sets the MMR trade-off between relevance (1) and diversity (0).
func WithLambda(lambda float64) SearchOption {
	return func(so *searchOptions) { so.lambda = lambda }
}
