package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	m := NewInMemory()
	m.Increment(FlushSuccess)
	m.Increment(FlushSuccess)
	m.Add(BulkItems, 3, "operation", "index")
	m.Gauge(PendingItems, 4)
	m.Timing(FlushDuration, time.Millisecond)

	assert.Equal(t, float64(2), m.Counter(FlushSuccess))
	assert.Equal(t, float64(3), m.Counter(BulkItems))
	assert.Equal(t, float64(4), m.Gauges[PendingItems])
	assert.Len(t, m.Timings[FlushDuration], 1)
}

func TestPrometheus(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := NewPrometheus(registry)

	p.Increment(GetHit, "index", "skills")
	p.Increment(GetHit, "index", "skills")
	p.Add(BulkItems, 5, "operation", "delete")
	p.Gauge(PendingItems, 7)
	p.Timing(RequestLatency, 20*time.Millisecond, "method", "GET")
	p.Increment("not.declared")

	assert.Equal(t, float64(2), testutil.ToFloat64(p.counters[GetHit].WithLabelValues("skills")))
	assert.Equal(t, float64(5), testutil.ToFloat64(p.counters[BulkItems].WithLabelValues("delete")))
	assert.Equal(t, float64(7), testutil.ToFloat64(p.gauges[PendingItems].WithLabelValues()))

	count, err := testutil.GatherAndCount(registry, "escrud_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNoOpSatisfiesMetrics(t *testing.T) {
	var m Metrics = NoOp{}
	m.Increment(FlushError, "reason", "transport")
}
