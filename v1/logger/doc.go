// Package logger provides structured logging for the CrateDB adapters.
//
// It wraps Uber's zap behind a small method set,
// Info/Debug/Warn/Error/Fatal(msg, err, fields...), which every adapter
// package mirrors in a local Logger interface so it can be mocked in tests.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Info,
//		ServiceName: "rag-api",
//	})
//
//	log.Info("Collection created", nil, map[string]interface{}{
//		"collection": "docs",
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // Provides *LoggerClient and logger.Logger
//		fx.Provide(logger.NewConfig),
//	)
//
// # Tracing Integration
//
// With EnableTracing, the *WithContext methods add the OpenTelemetry
// trace_id and span_id of the active span to each entry.
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	SERVICE_NAME=rag-api            # "service" field on every entry
//	LOGGER_ENABLE_TRACING=true      # trace correlation in *WithContext methods
package logger
