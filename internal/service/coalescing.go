package service

import (
	"context"
	"sync"
	"time"
)

// inFlightComputation tracks a single computation that multiple callers may wait for.
type inFlightComputation struct {
	mu      sync.Mutex
	result  []byte
	err     error
	done    bool
	waiters []chan struct{} // Channels to notify waiters when result is ready
}

// requestCoalescer collapses concurrent computations for the same key into
// one flight. Matrix and ranking computations are quadratic or linear in the
// catalog, so letting identical concurrent requests each recompute wastes
// the most expensive work the service does.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightComputation
	timeout  time.Duration
}

// newRequestCoalescer creates a new requestCoalescer with the specified timeout.
func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightComputation),
		timeout:  timeout,
	}
}

// GetOrDo checks if a computation for key is already in-flight. If yes, waits
// for its result. If no, executes fn and registers the flight. Returns the
// result or error. Respects context cancellation and timeout to prevent
// indefinite blocking.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func() ([]byte, error)) ([]byte, error) {
	rc.mu.Lock()
	req, exists := rc.inFlight[key]
	if exists {
		// Computation in-flight - wait for it
		notify := make(chan struct{})
		req.mu.Lock()
		if req.done {
			// Already completed
			result := req.result
			err := req.err
			req.mu.Unlock()
			rc.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return result, nil
		}
		req.waiters = append(req.waiters, notify)
		req.mu.Unlock()
		rc.mu.Unlock()

		// Wait for notification or timeout
		waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
		defer cancel()
		select {
		case <-notify:
			req.mu.Lock()
			result := req.result
			err := req.err
			req.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return result, nil
		case <-waitCtx.Done():
			return nil, waitCtx.Err()
		}
	}

	// No existing flight - create one
	req = &inFlightComputation{
		waiters: make([]chan struct{}, 0),
	}
	rc.inFlight[key] = req
	rc.mu.Unlock()

	// Execute the computation in a goroutine so late joiners can wait on it
	// even if this caller's context dies first
	go func() {
		result, err := fn()

		req.mu.Lock()
		req.result = result
		req.err = err
		req.done = true
		waiters := req.waiters
		req.waiters = nil
		req.mu.Unlock()

		// Notify all waiters
		for _, notify := range waiters {
			close(notify)
		}

		rc.cleanup(key)
	}()

	// Wait for result with timeout
	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	notify := make(chan struct{})
	req.mu.Lock()
	if req.done {
		// Completed already
		result := req.result
		err := req.err
		req.mu.Unlock()
		cancel()
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	req.waiters = append(req.waiters, notify)
	req.mu.Unlock()

	select {
	case <-notify:
		req.mu.Lock()
		result := req.result
		err := req.err
		req.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return result, nil
	case <-waitCtx.Done():
		return nil, waitCtx.Err()
	}
}

// cleanup removes the in-flight computation for key. Must be called after the flight completes.
func (rc *requestCoalescer) cleanup(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.inFlight, key)
}
