package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationRecorder is what the adapters need from a metrics backend.
// Every database-facing operation reports its outcome and latency through it.
type OperationRecorder interface {
	// RecordOperation counts one call of operation in component and observes its
	// duration. A non-nil err marks the call as failed.
	RecordOperation(component, operation string, start time.Time, err error)

	// ObserveResults records how many rows a read operation returned.
	ObserveResults(component, operation string, n int)
}

// MetricsCollector provides an interface for collecting and exposing application metrics.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	OperationRecorder

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

// Nop is an OperationRecorder that records nothing.
type Nop struct{}

func (Nop) RecordOperation(string, string, time.Time, error) {}

func (Nop) ObserveResults(string, string, int) {}
