package vectorstore

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/cratedb-llm/v1/embedding"
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// FXModule provides a *Store opened on the configured collection. It needs a
// vectordb.Service (for example from cratedb.FXModule), an embedding.Embedder
// and a Config.
var FXModule = fx.Module("vectorstore",
	fx.Provide(NewStoreWithDI),
)

// StoreParams groups the dependencies of a Store. Metrics and tracing are optional.
type StoreParams struct {
	fx.In

	Config   Config
	Backend  vectordb.Service
	Embedder embedding.Embedder
	Logger   logger.Logger
	Metrics  metrics.OperationRecorder `optional:"true"`
	Tracer   *tracer.Tracer            `optional:"true"`
}

// NewStoreWithDI opens the store from injected dependencies.
func NewStoreWithDI(p StoreParams) (*Store, error) {
	opts := append(p.Config.options(),
		WithLogger(p.Logger),
		WithMetrics(p.Metrics),
		WithTracer(p.Tracer),
	)
	return New(context.Background(), p.Backend, p.Embedder, opts...)
}
