// Package metrics is the observability seam of the client. The default is a
// no-op; Prometheus and in-memory collectors are provided.
package metrics

import (
	"sync"
	"time"
)

// Metrics records client activity. Tags are alternating label names and values.
type Metrics interface {
	Increment(name string, tags ...string)
	Add(name string, value float64, tags ...string)
	Gauge(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
}

// Common metric names
const (
	FlushSuccess   = "escrud.flush.success"
	FlushError     = "escrud.flush.error"
	FlushDuration  = "escrud.flush.duration"
	BulkItems      = "escrud.bulk.items"
	BulkItemErrors = "escrud.bulk.item_errors"
	PendingItems   = "escrud.pending.items"
	GetHit         = "escrud.get.hit"
	GetMiss        = "escrud.get.miss"
	SearchHits     = "escrud.search.hits"
	RequestTotal   = "escrud.request.total"
	RequestLatency = "escrud.request.duration"
)

type NoOp struct{}

func (NoOp) Increment(string, ...string)             {}
func (NoOp) Add(string, float64, ...string)          {}
func (NoOp) Gauge(string, float64, ...string)        {}
func (NoOp) Timing(string, time.Duration, ...string) {}

// InMemory keeps everything in maps, keyed by metric name only. Meant for tests.
type InMemory struct {
	mu       sync.Mutex
	Counters map[string]float64
	Gauges   map[string]float64
	Timings  map[string][]time.Duration
}

func NewInMemory() *InMemory {
	return &InMemory{
		Counters: make(map[string]float64),
		Gauges:   make(map[string]float64),
		Timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemory) Increment(name string, tags ...string) {
	m.Add(name, 1, tags...)
}

func (m *InMemory) Add(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[name] += value
}

func (m *InMemory) Gauge(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gauges[name] = value
}

func (m *InMemory) Timing(name string, duration time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timings[name] = append(m.Timings[name], duration)
}

func (m *InMemory) Counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[name]
}
