package service

import (
	"sync"

	"github.com/mkadlec/binsim/internal/observability"
)

// stampedeTracker watches concurrent recomputations of the same cached
// aggregate. Rankings are linear and matrices quadratic in the catalog, so
// several requests missing the same key at once means the most expensive
// work the service does is about to run redundantly. Every flight beyond
// the first is counted against the aggregate's surface ("ranking" or
// "matrix").
type stampedeTracker struct {
	mu      sync.Mutex
	flights map[string]int // cache key -> recomputations in progress
}

func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{flights: make(map[string]int)}
}

// begin marks a recomputation of key in progress and returns how many are
// now running. Callers pair it with a deferred end(key).
func (st *stampedeTracker) begin(surface, key string) int {
	st.mu.Lock()
	st.flights[key]++
	n := st.flights[key]
	st.mu.Unlock()
	if n > 1 {
		observability.CacheStampedeDetectedTotal.WithLabelValues(surface).Inc()
	}
	return n
}

// end marks one recomputation of key finished.
func (st *stampedeTracker) end(key string) {
	st.mu.Lock()
	if n, ok := st.flights[key]; ok {
		if n <= 1 {
			delete(st.flights, key)
		} else {
			st.flights[key] = n - 1
		}
	}
	st.mu.Unlock()
}
