package cratedb

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

// FXModule is an fx module that provides the CrateDB client and the
// vectordb.Service adapter on top of it, and manages the connection
// monitor goroutines.
//
// This module provides the Client and vectordb.Service interfaces in addition
// to the concrete types.
var FXModule = fx.Module("cratedb",
	fx.Provide(
		NewClientWithDI, // Returns *CrateDB for internal lifecycle
		fx.Annotate(
			ProvideClient,      // Returns Client interface
			fx.As(new(Client)), // Expose as Client interface
		),
		NewAdapterWithDI,
		fx.Annotate(
			ProvideService,
			fx.As(new(vectordb.Service)),
		),
	),
	fx.Invoke(RegisterCrateDBLifecycle),
)

// ProvideClient exposes the concrete *CrateDB as Client.
func ProvideClient(c *CrateDB) Client {
	return c
}

// ProvideService exposes the adapter as vectordb.Service.
func ProvideService(a *Adapter) vectordb.Service {
	return a
}

// CrateDBParams groups the dependencies needed to create a CrateDB client via dependency injection.
type CrateDBParams struct {
	fx.In

	Config Config
	Logger logger.Logger
}

// NewClientWithDI creates a CrateDB client from injected dependencies.
//
// Example usage with fx:
//
//	app := fx.New(
//	    logger.FXModule,
//	    cratedb.FXModule,
//	    fx.Provide(cratedb.NewConfig, logger.NewConfig),
//	)
func NewClientWithDI(params CrateDBParams) (*CrateDB, error) {
	return NewClient(params.Config, params.Logger)
}

// AdapterParams groups the adapter dependencies. Metrics and tracing are optional.
type AdapterParams struct {
	fx.In

	Client  Client
	Logger  logger.Logger
	Metrics metrics.OperationRecorder `optional:"true"`
	Tracer  *tracer.Tracer            `optional:"true"`
}

// NewAdapterWithDI creates the vectordb.Service adapter from injected dependencies.
func NewAdapterWithDI(params AdapterParams) *Adapter {
	return NewAdapter(params.Client,
		WithLogger(params.Logger),
		WithMetrics(params.Metrics),
		WithTracer(params.Tracer),
	)
}

// CrateDBLifeCycleParams groups the dependencies for lifecycle management.
type CrateDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	CrateDB   *CrateDB
}

// RegisterCrateDBLifecycle registers lifecycle hooks for the CrateDB client.
// It sets up:
// 1. Connection monitoring on application start
// 2. Automatic reconnection on application start
// 3. Graceful shutdown of the connection pool on application stop
func RegisterCrateDBLifecycle(params CrateDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	runCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.CrateDB.Ping(ctx); err != nil {
				cancel()
				return err
			}

			wg.Add(2)
			go func() {
				defer wg.Done()
				params.CrateDB.MonitorConnection(runCtx)
			}()
			go func() {
				defer wg.Done()
				params.CrateDB.RetryConnection(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			params.CrateDB.closeShutdownOnce.Do(func() {
				close(params.CrateDB.shutdownSignal)
			})
			wg.Wait()
			return params.CrateDB.GracefulShutdown()
		},
	})
}
