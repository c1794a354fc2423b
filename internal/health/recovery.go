package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// storeProbeTimeout bounds each validation ping against the fingerprint
// store during recovery.
const storeProbeTimeout = 10 * time.Second

var (
	degradedSignal   chan struct{}
	degradedSignalMu sync.Mutex

	// Test-only overrides; honored when testing_mode is true.
	recoveryDisabled   atomic.Bool
	forceFailNext      atomic.Bool
	forceSucceedNext   atomic.Bool
	recoveryAttemptIdx atomic.Uint32 // simulated fail_clear position for next_recovery display
)

// SetRecoveryDisabled disables auto-recovery when true. RunRecovery returns immediately.
// Only intended for testing_mode. Cleared by ClearRecoveryOverrides.
func SetRecoveryDisabled(v bool) {
	recoveryDisabled.Store(v)
}

// IsRecoveryDisabled returns true when auto-recovery is disabled.
func IsRecoveryDisabled() bool {
	return recoveryDisabled.Load()
}

// SetForceFailNextAttempt makes the next recovery probe simulate a store
// failure. Only intended for testing_mode. Single-use; cleared once consumed.
func SetForceFailNextAttempt(v bool) {
	forceFailNext.Store(v)
}

// SetForceSucceedNextAttempt makes the next recovery attempt succeed without
// probing the store. Only intended for testing_mode. Single-use.
func SetForceSucceedNextAttempt(v bool) {
	forceSucceedNext.Store(v)
}

// ClearRecoveryOverrides clears all test-only recovery overrides.
func ClearRecoveryOverrides() {
	recoveryDisabled.Store(false)
	forceFailNext.Store(false)
	forceSucceedNext.Store(false)
	recoveryAttemptIdx.Store(0)
}

// NotifyDegraded signals that the service lost its fingerprint store or
// cache and wants a recovery cycle. Safe to call from handlers; non-blocking
// and coalesces repeated signals while a cycle is already queued.
func NotifyDegraded() {
	degradedSignalMu.Lock()
	ch := degradedSignal
	degradedSignalMu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ValidateFunc re-checks the condition that marked the service degraded,
// typically a fingerprint store ping. Returns nil once recovered.
type ValidateFunc func(ctx context.Context) error

// StartRecoveryListener starts a goroutine that runs one recovery cycle per
// NotifyDegraded signal. Call from main with the app context; validate
// should ping the fingerprint store.
func StartRecoveryListener(ctx context.Context, validate ValidateFunc, initial, max time.Duration, onExhausted func()) {
	ch := make(chan struct{}, 1)
	degradedSignalMu.Lock()
	degradedSignal = ch
	degradedSignalMu.Unlock()

	var cycleRunning atomic.Bool
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if cycleRunning.Swap(true) {
					continue
				}
				go func() {
					defer cycleRunning.Store(false)
					RunRecovery(ctx, validate, initial, max, onExhausted)
				}()
			}
		}
	}()
}

// RunRecovery probes the store on a Fibonacci ladder of delays (initial,
// 2x, 3x, 5x, 8x... capped at max) until validate succeeds, then clears the
// degraded window via Reset. When the final probe still fails, onExhausted
// is called; the caller decides whether that means shutting down.
// Test-only overrides apply: recoveryDisabled skips the cycle entirely,
// forceSucceedNext recovers without probing, forceFailNext fakes one failed
// probe.
func RunRecovery(ctx context.Context, validate ValidateFunc, initial, max time.Duration, onExhausted func()) {
	if recoveryDisabled.Load() {
		return
	}
	if initial <= 0 || max < initial {
		return
	}

	delays := fibDelays(initial, max)
	for i, d := range delays {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
		if recoveryDisabled.Load() {
			return
		}

		lastAttempt := i == len(delays)-1
		switch probeStore(ctx, validate) {
		case probeRecovered:
			Reset()
			return
		case probeFailed:
			if lastAttempt {
				onExhausted()
				return
			}
		}
	}
}

type probeResult int

const (
	probeRecovered probeResult = iota
	probeFailed
)

// probeStore runs one bounded validation attempt, honoring the single-use
// test overrides.
func probeStore(ctx context.Context, validate ValidateFunc) probeResult {
	if forceSucceedNext.Swap(false) {
		return probeRecovered
	}
	if forceFailNext.Swap(false) {
		return probeFailed
	}
	attemptCtx, cancel := context.WithTimeout(ctx, storeProbeTimeout)
	defer cancel()
	if err := validate(attemptCtx); err != nil {
		return probeFailed
	}
	return probeRecovered
}

// GetAndAdvanceNextRecoveryDelay returns the delay for the current simulated
// failure attempt, then advances the attempt index for the next fail_clear.
// Lets the /test surface display the Fibonacci clock. Returns (0, false)
// once the ladder is exhausted.
func GetAndAdvanceNextRecoveryDelay(initial, max time.Duration) (time.Duration, bool) {
	delays := fibDelays(initial, max)
	if len(delays) == 0 {
		return 0, false
	}
	idx := recoveryAttemptIdx.Add(1) - 1
	if int(idx) >= len(delays) {
		return 0, false
	}
	return delays[idx], true
}

// fibDelays expands initial into a Fibonacci ladder of probe delays
// (1x, 2x, 3x, 5x, 8x...), stopping before the first value past max.
func fibDelays(initial, max time.Duration) []time.Duration {
	var out []time.Duration
	a, b := int64(1), int64(2)
	for {
		d := time.Duration(a) * initial
		if d > max {
			return out
		}
		out = append(out, d)
		a, b = b, a+b
	}
}
