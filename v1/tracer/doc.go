// Package tracer provides OpenTelemetry tracing for the CrateDB adapters.
//
// Vector store, cache, chat history and loader operations each open a span
// (e.g. "vectorstore.similarity_search") and record failures on it.
//
// Basic Usage:
//
//	t := tracer.NewClient(tracer.Config{
//		ServiceName:  "rag-api",
//		AppEnv:       "development",
//		EnableExport: true,
//	}, log)
//
//	store, err := vectorstore.New(ctx, client, embedder, vectorstore.WithTracer(t))
//
// Without a configured tracer the adapters use NewNoop.
//
// FX Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		tracer.FXModule,
//		fx.Provide(tracer.NewConfig),
//	)
package tracer
