package llmcache

import (
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
)

const (
	// DefaultScoreThreshold is the largest distance a semantic cache hit may have.
	DefaultScoreThreshold = 0.2

	// DefaultCollectionPrefix prefixes the per-model collections of a SemanticCache.
	DefaultCollectionPrefix = "llm_cache_"
)

// Logger is the logging surface used by the caches.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type options struct {
	serializer       Serializer
	scoreThreshold   float64
	collectionPrefix string
	embeddingLength  int
	logger           Logger
	tracer           *tracer.Tracer
	metrics          metrics.OperationRecorder
}

func newOptions(opts []Option) options {
	o := options{
		serializer:       JSONSerializer{},
		scoreThreshold:   DefaultScoreThreshold,
		collectionPrefix: DefaultCollectionPrefix,
		logger:           logger.NewNop(),
		tracer:           tracer.NewNoop(),
		metrics:          metrics.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a FullCache or a SemanticCache.
type Option func(*options)

func WithSerializer(s Serializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithScoreThreshold sets the maximum distance of a semantic cache hit.
func WithScoreThreshold(t float64) Option {
	return func(o *options) { o.scoreThreshold = t }
}

// WithCollectionPrefix names the collections of a SemanticCache.
func WithCollectionPrefix(prefix string) Option {
	return func(o *options) { o.collectionPrefix = prefix }
}

// WithEmbeddingLength fixes the vector width of a SemanticCache when the
// embedder does not report it.
func WithEmbeddingLength(n int) Option {
	return func(o *options) { o.embeddingLength = n }
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

type clearOptions struct {
	llmString string
}

// ClearOption scopes Clear.
type ClearOption func(*clearOptions)

// WithLLMString limits Clear to the entries of one model configuration.
func WithLLMString(llm string) ClearOption {
	return func(co *clearOptions) { co.llmString = llm }
}

func newClearOptions(opts []ClearOption) clearOptions {
	var co clearOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}
