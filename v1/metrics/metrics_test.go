package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	m.RecordOperation("cratedb", "search", time.Now(), nil)
	m.RecordOperation("cratedb", "search", time.Now(), nil)
	m.RecordOperation("cratedb", "search", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("cratedb", "search", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("cratedb", "search", statusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "rag-api", Namespace: "test"})
	m.ObserveResults("vectorstore", "similarity_search", 4)

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_result_rows_count"))
	assert.True(t, strings.Contains(body, `service="rag-api"`))
}

func TestCreateCounterRegistersWithServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "rag-api"})
	c := m.CreateCounter("cache_hits_total", "hits", []string{"kind"})
	c.WithLabelValues("semantic").Inc()

	n, err := testutil.GatherAndCount(m.Registry, "cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNopRecorder(t *testing.T) {
	var r OperationRecorder = Nop{}
	assert.NotPanics(t, func() {
		r.RecordOperation("x", "y", time.Now(), nil)
		r.ObserveResults("x", "y", 1)
	})
}
