package http

import (
	"context"
	"sync/atomic"
	"time"
)

// requestDrain counts requests currently inside the handler chain. Shutdown
// stops intake first, then holds the process open until comparisons and
// imports already in flight have finished writing their responses.
type requestDrain struct {
	n atomic.Int64
}

func (d *requestDrain) enter() { d.n.Add(1) }
func (d *requestDrain) leave() { d.n.Add(-1) }

func (d *requestDrain) count() int64 { return d.n.Load() }

// wait blocks until the drain is empty or ctx is done. checkInterval is how
// often the count is re-read.
func (d *requestDrain) wait(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if d.count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain is the process-wide request drain fed by MetricsMiddleware.
var drain = &requestDrain{}

// InFlightCount returns the current number of in-flight requests.
func InFlightCount() int64 {
	return drain.count()
}

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return drain.wait(ctx, checkInterval)
}
