// Package metrics keeps in-process counters for the data sources behind the
// activity, notification, and recommendation endpoints.
package metrics

import (
	"strings"
	"sync"
	"time"
)

type SourceMetrics struct {
	SuccessTotal       int64      `json:"success_total"`
	FailureTotal       int64      `json:"failure_total"`
	TimeoutTotal       int64      `json:"timeout_total"`
	TotalLatencyMillis int64      `json:"total_latency_millis"`
	LastError          string     `json:"last_error,omitempty"`
	LastFailureAt      *time.Time `json:"last_failure_at,omitempty"`
}

type Snapshot struct {
	Sources     map[string]SourceMetrics `json:"sources"`
	Fallbacks   map[string]int64         `json:"fallbacks"`
	Throttles   map[string]int64         `json:"throttles"`
	GeneratedAt time.Time                `json:"generated_at"`
}

type registry struct {
	mu        sync.RWMutex
	sources   map[string]*SourceMetrics
	fallbacks map[string]int64
	throttles map[string]int64
}

var (
	globalMu       sync.RWMutex
	globalRegistry = newRegistry()
)

func newRegistry() *registry {
	return &registry{
		sources:   make(map[string]*SourceMetrics),
		fallbacks: make(map[string]int64),
		throttles: make(map[string]int64),
	}
}

func current() *registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRegistry
}

func ResetForTests() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRegistry = newRegistry()
}

// RecordSourceSuccess counts a source call that returned rows.
func RecordSourceSuccess(source string, latency time.Duration) {
	r := current()
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.sourceMetrics(source)
	m.SuccessTotal++
	if latency > 0 {
		m.TotalLatencyMillis += latency.Milliseconds()
	}
}

// RecordSourceFailure counts a failed source call. timedOut marks failures
// caused by the per-source deadline.
func RecordSourceFailure(source string, latency time.Duration, timedOut bool, err error) {
	r := current()
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.sourceMetrics(source)
	m.FailureTotal++
	if timedOut {
		m.TimeoutTotal++
	}
	if latency > 0 {
		m.TotalLatencyMillis += latency.Milliseconds()
	}
	if err != nil {
		m.LastError = err.Error()
	}
	now := time.Now().UTC()
	m.LastFailureAt = &now
}

// RecordFallback counts a request served from a fallback source.
func RecordFallback(kind string) {
	key := normalizeKey(kind)
	if key == "" {
		return
	}
	r := current()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[key]++
}

// RecordThrottle counts a call that had to wait on a rate limiter.
func RecordThrottle(client string) {
	key := normalizeKey(client)
	if key == "" {
		return
	}
	r := current()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.throttles[key]++
}

func SnapshotNow() Snapshot {
	r := current()
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		Sources:     make(map[string]SourceMetrics, len(r.sources)),
		Fallbacks:   make(map[string]int64, len(r.fallbacks)),
		Throttles:   make(map[string]int64, len(r.throttles)),
		GeneratedAt: time.Now().UTC(),
	}

	for key, m := range r.sources {
		copied := *m
		if m.LastFailureAt != nil {
			at := *m.LastFailureAt
			copied.LastFailureAt = &at
		}
		snapshot.Sources[key] = copied
	}
	for key, n := range r.fallbacks {
		snapshot.Fallbacks[key] = n
	}
	for key, n := range r.throttles {
		snapshot.Throttles[key] = n
	}

	return snapshot
}

// sourceMetrics must be called with r.mu held.
func (r *registry) sourceMetrics(source string) *SourceMetrics {
	key := normalizeKey(source)
	if key == "" {
		key = "unknown"
	}

	m, ok := r.sources[key]
	if !ok {
		m = &SourceMetrics{}
		r.sources[key] = m
	}
	return m
}

func normalizeKey(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}
