package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
)

// FXModule provides *Metrics, exposes it as MetricsCollector and
// OperationRecorder, and runs the /metrics server for the lifetime of the app.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    fx.Provide(logger.NewConfig, metrics.NewConfig),
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			ProvideCollector,
			fx.As(new(MetricsCollector)),
		),
		fx.Annotate(
			ProvideRecorder,
			fx.As(new(OperationRecorder)),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// ProvideCollector exposes *Metrics as MetricsCollector.
func ProvideCollector(m *Metrics) MetricsCollector {
	return m
}

// ProvideRecorder exposes *Metrics as OperationRecorder for the adapters.
func ProvideRecorder(m *Metrics) OperationRecorder {
	return m
}

// RegisterMetricsLifecycle starts the Prometheus HTTP server in the background
// on start and shuts it down gracefully on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
					"address": m.Server.Addr,
				})

				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Error starting Prometheus metrics server", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
