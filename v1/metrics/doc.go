// Package metrics provides Prometheus metrics for the CrateDB adapters.
//
// Every database-facing operation of the adapters (collection management,
// inserts, searches, cache and history access, document loading) is counted
// and timed through the OperationRecorder interface:
//
//	cratedb_llm_operations_total{component,operation,status}
//	cratedb_llm_operation_duration_seconds{component,operation}
//	cratedb_llm_result_rows{component,operation}
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "rag-api",
//	})
//	go m.Server.ListenAndServe()
//
//	client, err := cratedb.NewClient(cfg, cratedb.WithMetrics(m))
//
// Adapters fall back to metrics.Nop when no recorder is configured.
//
// # Custom Metrics
//
//	hits := m.CreateCounter("semantic_cache_hits_total", "Semantic cache hits", []string{"llm"})
//	hits.WithLabelValues("gpt").Inc()
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_NAMESPACE=cratedb_llm
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
package metrics
