package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Logger defines the logging operations used by the tracer.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=tracer
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

const instrumentationName = "github.com/Aleph-Alpha/cratedb-llm"

// Tracer wraps an OpenTelemetry TracerProvider with helpers for creating
// spans and recording errors. It is safe for concurrent use.
type Tracer struct {
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	logger   Logger
}

// NewClient creates the tracer provider, optionally with an OTLP/HTTP exporter,
// and installs it as the global provider and propagator.
//
// If the exporter cannot be created, the error is logged as fatal.
//
// Example:
//
//	tracerClient := tracer.NewClient(tracer.Config{ServiceName: "rag-api", AppEnv: "production"}, log)
//	ctx, span := tracerClient.StartSpan(ctx, "vectorstore.similarity_search")
//	defer span.End()
func NewClient(cfg Config, logger Logger) *Tracer {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
		if err != nil {
			logger.Fatal("cannot initiate tracer", err, nil)
			return nil
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Tracer{provider: tp, sdk: tp, logger: logger}
}

// NewNoop returns a tracer whose spans are discarded.
// Adapters use it when no tracer is configured.
func NewNoop() *Tracer {
	return &Tracer{provider: noop.NewTracerProvider()}
}

// NewFromProvider wraps an existing provider, e.g. one owned by the application.
func NewFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{provider: tp}
}

// Shutdown flushes pending spans. It is a no-op for tracers that do not own an SDK provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
