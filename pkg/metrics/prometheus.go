package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements Metrics on a registry. Only the metric names declared
// in this package are exported; anything else is dropped.
type Prometheus struct {
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   prometheus.Registerer
}

// NewPrometheus registers the client's collectors on registry, or on the
// default registerer when registry is nil.
func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}
	p.registerDefaultMetrics()
	return p
}

func (p *Prometheus) registerDefaultMetrics() {
	factory := promauto.With(p.registry)

	counter := func(name, subsystem, metric, help string, labels ...string) {
		p.counters[name] = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrud",
			Subsystem: subsystem,
			Name:      metric,
			Help:      help,
		}, labels)
	}

	counter(FlushSuccess, "flush", "success_total", "Bulk flushes answered by the engine", "item_errors")
	counter(FlushError, "flush", "errors_total", "Bulk flushes that failed before or during the request", "reason")
	counter(BulkItems, "bulk", "items_total", "Operations written into bulk streams", "operation")
	counter(BulkItemErrors, "bulk", "item_errors_total", "Bulk operations the engine reported as failed", "operation")
	counter(GetHit, "get", "hits_total", "Documents found by id", "index")
	counter(GetMiss, "get", "misses_total", "Documents not found by id", "index")
	counter(SearchHits, "search", "hits_total", "Hits returned by searches", "index")
	counter(RequestTotal, "request", "total", "HTTP requests sent to the engine", "method", "status")

	p.gauges[PendingItems] = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "escrud",
		Subsystem: "pending",
		Name:      "items",
		Help:      "Operations queued and not yet flushed",
	}, nil)

	p.histograms[FlushDuration] = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "escrud",
		Subsystem: "flush",
		Name:      "duration_seconds",
		Help:      "Time spent building and sending a bulk request",
		Buckets:   prometheus.DefBuckets,
	}, nil)
	p.histograms[RequestLatency] = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "escrud",
		Subsystem: "request",
		Name:      "duration_seconds",
		Help:      "HTTP round trip latency",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method"})
}

func (p *Prometheus) Increment(name string, tags ...string) {
	p.Add(name, 1, tags...)
}

func (p *Prometheus) Add(name string, value float64, tags ...string) {
	if c, ok := p.counters[name]; ok {
		c.With(labels(tags)).Add(value)
	}
}

func (p *Prometheus) Gauge(name string, value float64, tags ...string) {
	if g, ok := p.gauges[name]; ok {
		g.With(labels(tags)).Set(value)
	}
}

func (p *Prometheus) Timing(name string, duration time.Duration, tags ...string) {
	if h, ok := p.histograms[name]; ok {
		h.With(labels(tags)).Observe(duration.Seconds())
	}
}

// labels pairs up tags; a trailing key without value is ignored.
func labels(tags []string) prometheus.Labels {
	l := prometheus.Labels{}
	for i := 0; i+1 < len(tags); i += 2 {
		l[strings.ToLower(tags[i])] = tags[i+1]
	}
	return l
}
