// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for service-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// Well-known metric keys.
const (
	MetricSessionsActive   = "sessions.active"
	MetricSessionsTotal    = "sessions.total"
	MetricSessionsTimedOut = "sessions.timed_out"
	MetricSessionsPeer     = "sessions.peer_closed"
	MetricSessionsErrored  = "sessions.errored"
	MetricMessagesEchoed   = "messages.echoed"
	MetricUpgradesRejected = "upgrades.rejected"
	MetricCounter          = "counter.last"
)

// MetricsRegistry holds integer counters and free-form values.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]int64
	values   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]int64),
		values:   make(map[string]any),
	}
}

// Add increments counter key by delta and returns the new value.
func (mr *MetricsRegistry) Add(key string, delta int64) int64 {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.counters[key] += delta
	mr.updated = time.Now()
	return mr.counters[key]
}

// Counter returns the current value of counter key.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.counters[key]
}

// Set sets or updates a non-counter metric.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Updated returns the time of the last write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// GetSnapshot returns the latest metrics, counters and values merged.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.values))
	for k, v := range mr.values {
		out[k] = v
	}
	for k, v := range mr.counters {
		out[k] = v
	}
	return out
}
