package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
)

// FXModule provides *Tracer and flushes it on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(tracer.NewConfig),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of the tracer for fx injection.
type TracerParams struct {
	fx.In

	Config Config
	Logger logger.Logger
}

// NewClientWithDI builds the tracer from injected dependencies.
func NewClientWithDI(p TracerParams) *Tracer {
	return NewClient(p.Config, p.Logger)
}

// RegisterTracerLifecycle shuts the tracer provider down when the application
// stops so pending spans reach the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil {
				return nil
			}
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil, nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}
