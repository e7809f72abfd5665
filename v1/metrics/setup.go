package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "cratedb_llm"

// Metrics encapsulates the Prometheus registry and the HTTP server exposing it.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	resultRows        *prometheus.HistogramVec
}

// NewMetrics sets up a dedicated registry, registers the adapter operation
// metrics, wraps everything with a constant `service` label and creates the
// HTTP server exposing /metrics.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "rag-api"})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
	}

	m.operationsTotal = createCounterVec(namespace+"_operations_total",
		"Total number of adapter operations by outcome", []string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(namespace+"_operation_duration_seconds",
		"Duration of adapter operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.resultRows = createHistogramVec(namespace+"_result_rows",
		"Number of rows returned by read operations", []string{"component", "operation"},
		prometheus.ExponentialBuckets(1, 2, 10))

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.resultRows,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
