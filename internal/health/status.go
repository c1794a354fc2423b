package health

import (
	"context"
	"net/http"
	"time"
)

// Config holds lifecycle thresholds for health evaluation.
type Config struct {
	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	RateLimitRPS           int
	RateLimitBurst         int // 0 when rate limiter disabled
	DegradedWindow         time.Duration
	DegradedErrorPct       int
	DegradedRetryInitial   time.Duration
	DegradedRetryMax       time.Duration
	IdleWindow             time.Duration
	IdleThresholdReqPerMin int
	MinimumLifespan        time.Duration
	StartTime              time.Time
	// StorePing, when set, is called to check fingerprint store reachability.
	StorePing func(ctx context.Context) error
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached or redis.
	CachePing func() error
}

// Result holds the computed health status and metadata for logging.
type Result struct {
	Status     string
	StatusCode int
	Reason     string
}

// Evaluate determines the current health status by evaluating multiple conditions
// in priority order. Returns Result with status, HTTP status code, and reason.
// Decision order: shutting-down > store unreachable > overloaded > idle > degraded > healthy.
// Each condition is evaluated only if previous conditions are not met.
func Evaluate(ctx context.Context, cfg *Config) Result {
	// Priority 1: Check if service is shutting down
	if IsShuttingDown() {
		return Result{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	// Priority 2: If no health config, nothing further to evaluate
	if cfg == nil {
		return Result{"healthy", http.StatusOK, ""}
	}
	// Priority 3: Check store reachability (required for all comparison traffic)
	if cfg.StorePing != nil {
		if err := cfg.StorePing(ctx); err != nil {
			return Result{"degraded", http.StatusServiceUnavailable, "store_unreachable"}
		}
	}
	// Priority 4: Check overload threshold (request volume exceeds configured percentage of capacity)
	threshold := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
	if float64(RequestCount(cfg.OverloadWindow)) > threshold {
		return Result{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
	}
	// Priority 5: Check idle conditions (only if uptime exceeds minimum lifespan)
	if cfg.IdleWindow > 0 && cfg.MinimumLifespan > 0 && time.Since(cfg.StartTime) >= cfg.MinimumLifespan {
		if QueryCount(cfg.IdleWindow) < cfg.IdleThresholdReqPerMin {
			return Result{"idle", http.StatusOK, "low_traffic"}
		}
	}
	// Priority 6: Check degraded state (error rate exceeds configured threshold)
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errors, total := ErrorRate(cfg.DegradedWindow)
		if total > 0 {
			pct := float64(errors) * 100 / float64(total)
			if pct >= float64(cfg.DegradedErrorPct) {
				return Result{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	// Default: All checks passed, service is healthy
	return Result{"healthy", http.StatusOK, ""}
}
