package llmcache

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// FXModule provides a *FullCache and a *SemanticCache. It expects the
// providers of cratedb.FXModule, an embedding.Embedder and a Config.
var FXModule = fx.Module("llmcache",
	fx.Provide(
		NewFullCacheWithDI,
		NewSemanticCacheWithDI,
	),
)

// CacheParams groups the dependencies of both caches. Metrics and tracing are optional.
type CacheParams struct {
	fx.In

	Config  Config
	Client  cratedb.Client
	Logger  logger.Logger
	Metrics metrics.OperationRecorder `optional:"true"`
	Tracer  *tracer.Tracer            `optional:"true"`
}

func (p CacheParams) options() []Option {
	return []Option{
		WithScoreThreshold(p.Config.ScoreThreshold),
		WithCollectionPrefix(p.Config.CollectionPrefix),
		WithLogger(p.Logger),
		WithMetrics(p.Metrics),
		WithTracer(p.Tracer),
	}
}

func NewFullCacheWithDI(p CacheParams) (*FullCache, error) {
	return NewFullCache(context.Background(), p.Client, p.options()...)
}

// SemanticCacheParams adds the vector backend and embedder to CacheParams.
type SemanticCacheParams struct {
	fx.In
	CacheParams

	Backend  vectordb.Service
	Embedder embedding.Embedder
}

func NewSemanticCacheWithDI(p SemanticCacheParams) (*SemanticCache, error) {
	return NewSemanticCache(context.Background(), p.Backend, p.Embedder, p.CacheParams.options()...)
}
