package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
)

// Full matrices are quadratic in the catalog size, so warming only
// precomputes them for small catalogs. Rankings are warmed regardless.
const maxWarmMatrixNames = 64

// ComparisonRunner is implemented by the service layer to compute rankings
// and matrices through the normal cache-aside path. Used by Warmer to avoid
// a circular dependency on the service package.
type ComparisonRunner interface {
	Rank(ctx context.Context, measureName, target string, limit int) (models.Ranking, error)
	Matrix(ctx context.Context, measureName string, names []string) (models.SimilarityMatrix, error)
	FingerprintNames(ctx context.Context) ([]string, error)
}

// Warmer populates the cache by precomputing rankings for every stored
// fingerprint under each configured measure, plus the full matrix when the
// catalog is small enough.
type Warmer struct {
	runner ComparisonRunner
	logger *zap.Logger
}

// NewWarmer creates a Warmer that computes through runner.
func NewWarmer(runner ComparisonRunner, logger *zap.Logger) *Warmer {
	return &Warmer{runner: runner, logger: logger}
}

// Warm precomputes results for each measure concurrently. Returns an error
// if any measure failed (aggregated).
func (w *Warmer) Warm(ctx context.Context, measures []string) error {
	start := time.Now()
	observability.WarmRunsTotal.Inc()

	names, err := w.runner.FingerprintNames(ctx)
	if err != nil {
		observability.WarmErrorsTotal.Inc()
		return fmt.Errorf("warm: list fingerprints: %w", err)
	}
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("measures", len(measures)), zap.Int("fingerprints", len(names)))
	}
	if len(measures) == 0 || len(names) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(measures))
	for _, m := range measures {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.warmMeasure(ctx, m, names); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.WarmDuration.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("measures", len(measures)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.WarmErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

func (w *Warmer) warmMeasure(ctx context.Context, measure string, names []string) error {
	if len(names) <= maxWarmMatrixNames {
		if _, err := w.runner.Matrix(ctx, measure, nil); err != nil {
			return fmt.Errorf("warm matrix %s: %w", measure, err)
		}
	}
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.runner.Rank(ctx, measure, name, 0); err != nil {
			return fmt.Errorf("warm %s/%s: %w", measure, name, err)
		}
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
func (w *Warmer) WarmPeriodic(ctx context.Context, measures []string, interval time.Duration) error {
	if err := w.Warm(ctx, measures); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, measures); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
