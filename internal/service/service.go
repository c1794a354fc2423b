package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mkadlec/binsim/bitvec"
	"github.com/mkadlec/binsim/internal/cache"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
	"github.com/mkadlec/binsim/internal/store"
	"github.com/mkadlec/binsim/measure"
)

// ErrUnknownMeasure is returned when no measure with the requested name or alias exists.
var ErrUnknownMeasure = errors.New("unknown measure")

// ErrUndefinedResult is returned when a measure evaluates to NaN or infinity
// for the given vectors. JSON cannot carry non-finite values, so the boundary
// reports them as errors instead.
var ErrUndefinedResult = errors.New("measure undefined for these vectors")

// ErrTooManyNames is returned when a matrix request exceeds the configured
// name cap.
var ErrTooManyNames = errors.New("too many names for one matrix")

// Store is the slice of the fingerprint repository the service depends on.
type Store interface {
	Put(ctx context.Context, fp models.Fingerprint) (created bool, err error)
	PutBatch(ctx context.Context, fps []models.Fingerprint) error
	Get(ctx context.Context, name string) (models.Fingerprint, error)
	List(ctx context.Context, limit, offset int) ([]models.Fingerprint, error)
	Names(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Revision(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// CompareService computes similarity and distance measures over fingerprints,
// caching expensive aggregates (rankings, matrices) with the cache-aside
// pattern and serving stale cached results when the store is down.
type CompareService struct {
	store           Store
	cache           cache.Cache
	ttl             time.Duration
	staleTTL        time.Duration // Maximum age for stale cache fallback (0 = disabled)
	maxMatrixNames  int
	stampedeTracker *stampedeTracker
	coalescer       *requestCoalescer // Optional request coalescing (nil if disabled)

	// revision is bumped on every store mutation and mixed into cache keys,
	// so cached rankings and matrices self-invalidate once the catalog changes.
	revision atomic.Int64
}

// NewCompareService creates a CompareService over the given store and cache.
// ttl is the cache freshness window, staleTTL the stale-serve window (0
// disables stale fallback), coalesceTimeout bounds waits on shared
// computations (0 disables coalescing), maxMatrixNames caps matrix size.
func NewCompareService(st Store, c cache.Cache, ttl, staleTTL, coalesceTimeout time.Duration, maxMatrixNames int) *CompareService {
	var coalescer *requestCoalescer
	if coalesceTimeout > 0 {
		coalescer = newRequestCoalescer(coalesceTimeout)
	}
	s := &CompareService{
		store:           st,
		cache:           c,
		ttl:             ttl,
		staleTTL:        staleTTL,
		maxMatrixNames:  maxMatrixNames,
		stampedeTracker: newStampedeTracker(),
		coalescer:       coalescer,
	}
	// Seed from the revision the store persisted across restarts. The
	// persisted value is bumped inside every mutation transaction and never
	// goes backwards, so no key from an earlier catalog can come back fresh
	// out of a surviving external cache.
	if rev, err := st.Revision(context.Background()); err == nil {
		s.revision.Store(rev)
	}
	return s
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Compare evaluates one measure over two bit strings, with an optional mask
// restricting which positions count. Returns ErrUnknownMeasure for
// unrecognized names and ErrUndefinedResult when the formula yields a
// non-finite value.
func (s *CompareService) Compare(ctx context.Context, measureName, xBits, yBits, maskBits string) (models.ComparisonResult, error) {
	m, ok := measure.Lookup(measureName)
	if !ok {
		return models.ComparisonResult{}, fmt.Errorf("%w: %s", ErrUnknownMeasure, measureName)
	}

	start := time.Now()
	counts, err := vectorCounts(xBits, yBits, maskBits)
	if err != nil {
		observability.ComparisonsTotal.WithLabelValues(m.Name, "error").Inc()
		return models.ComparisonResult{}, err
	}
	value := m.Eval(counts)
	observability.ComparisonDuration.WithLabelValues(string(m.Kind)).Observe(time.Since(start).Seconds())
	observability.VectorLengthBits.Observe(float64(len(xBits)))

	if !isFinite(value) {
		observability.ComparisonsTotal.WithLabelValues(m.Name, "undefined").Inc()
		return models.ComparisonResult{}, fmt.Errorf("%w: %s", ErrUndefinedResult, m.Name)
	}
	observability.ComparisonsTotal.WithLabelValues(m.Name, "ok").Inc()

	return models.ComparisonResult{
		Measure: m.Name,
		Kind:    string(m.Kind),
		Family:  string(m.Family),
		Value:   value,
		Counts:  toModelCounts(counts),
	}, nil
}

// CompareBatch evaluates measures over one pair of vectors. An empty
// measureNames slice means the full catalog. Per-measure failures (unknown
// name, non-finite value) are captured in their entry and never abort the
// remaining evaluations.
func (s *CompareService) CompareBatch(ctx context.Context, measureNames []string, xBits, yBits, maskBits string) (models.BatchResult, error) {
	counts, err := vectorCounts(xBits, yBits, maskBits)
	if err != nil {
		return models.BatchResult{}, err
	}
	if len(measureNames) == 0 {
		measureNames = measure.Names()
	}
	observability.BatchSizeMeasures.Observe(float64(len(measureNames)))
	observability.VectorLengthBits.Observe(float64(len(xBits)))

	result := models.BatchResult{
		Counts:  toModelCounts(counts),
		Results: make([]models.BatchEntry, 0, len(measureNames)),
	}
	for _, name := range measureNames {
		m, ok := measure.Lookup(name)
		if !ok {
			observability.ComparisonsTotal.WithLabelValues(strings.ToLower(strings.TrimSpace(name)), "error").Inc()
			result.Results = append(result.Results, models.BatchEntry{Measure: name, Error: "unknown measure"})
			continue
		}
		value := m.Eval(counts)
		if !isFinite(value) {
			observability.ComparisonsTotal.WithLabelValues(m.Name, "undefined").Inc()
			result.Results = append(result.Results, models.BatchEntry{Measure: m.Name, Error: "undefined result"})
			continue
		}
		observability.ComparisonsTotal.WithLabelValues(m.Name, "ok").Inc()
		v := value
		result.Results = append(result.Results, models.BatchEntry{Measure: m.Name, Value: &v})
	}
	return result, nil
}

// Rank orders every stored fingerprint of the target's length by the measure
// against the target: similarities descending, distances ascending, ties by
// name. Results are cached; when the store fails, a stale cached ranking is
// served with Stale set.
func (s *CompareService) Rank(ctx context.Context, measureName, target string, limit int) (models.Ranking, error) {
	m, ok := measure.Lookup(measureName)
	if !ok {
		return models.Ranking{}, fmt.Errorf("%w: %s", ErrUnknownMeasure, measureName)
	}
	logger := loggerFromContext(ctx)
	key := s.cacheKey("rank", m.Name, target)

	if payload, hit := s.cacheGet(ctx, key); hit {
		var rk models.Ranking
		if err := json.Unmarshal(payload, &rk); err == nil {
			observability.CacheHitsTotal.WithLabelValues("ranking").Inc()
			if logger != nil {
				logger.Debug("ranking cache hit", zap.String("measure", m.Name), zap.String("target", target))
			}
			return truncateRanking(rk, limit), nil
		}
	}

	concurrentMisses := s.stampedeTracker.begin("ranking", key)
	defer s.stampedeTracker.end(key)

	compute := func() ([]byte, error) {
		rk, err := s.computeRanking(ctx, m, target)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rk)
	}

	payload, err := s.runCoalesced(ctx, key, concurrentMisses, compute)
	if err != nil {
		if errors.Is(err, store.ErrFingerprintNotFound) {
			return models.Ranking{}, err
		}
		if stale, ok := s.staleRanking(ctx, key); ok {
			if logger != nil {
				logger.Info("serving stale ranking", zap.String("measure", m.Name), zap.String("target", target), zap.Error(err))
			}
			return truncateRanking(stale, limit), nil
		}
		return models.Ranking{}, fmt.Errorf("ranking %s by %s: %w", target, m.Name, err)
	}

	s.cacheSetRaw(ctx, key, payload)
	var rk models.Ranking
	if err := json.Unmarshal(payload, &rk); err != nil {
		return models.Ranking{}, fmt.Errorf("decoding ranking payload: %w", err)
	}
	observability.RankingsTotal.WithLabelValues(m.Name).Inc()
	return truncateRanking(rk, limit), nil
}

// runCoalesced executes compute through the coalescer when one is
// configured, so concurrent identical ranking and matrix computations
// collapse to a single flight.
func (s *CompareService) runCoalesced(ctx context.Context, key string, concurrentMisses int, compute func() ([]byte, error)) ([]byte, error) {
	if s.coalescer == nil {
		return compute()
	}
	start := time.Now()
	payload, err := s.coalescer.GetOrDo(ctx, key, compute)
	wait := time.Since(start)
	if err == nil {
		// Waiting noticeably longer than a cold compute start means we
		// likely rode on another caller's in-flight computation.
		if wait > 10*time.Millisecond && concurrentMisses > 1 {
			observability.CoalescedRequestsTotal.Inc()
		}
		observability.CoalesceWaitSeconds.Observe(wait.Seconds())
	}
	return payload, err
}

func (s *CompareService) computeRanking(ctx context.Context, m measure.Measure, target string) (models.Ranking, error) {
	fp, err := s.store.Get(ctx, target)
	if err != nil {
		return models.Ranking{}, err
	}
	targetVec, err := bitvec.ParsePacked(fp.Bits)
	if err != nil {
		return models.Ranking{}, fmt.Errorf("decoding target %s: %w", target, err)
	}

	all, err := s.store.List(ctx, 0, 0)
	if err != nil {
		return models.Ranking{}, err
	}

	entries := make([]models.RankingEntry, 0, len(all))
	skipped := 0
	for _, other := range all {
		if other.Name == target {
			continue
		}
		if other.Length != fp.Length {
			skipped++
			continue
		}
		vec, err := bitvec.ParsePacked(other.Bits)
		if err != nil {
			return models.Ranking{}, fmt.Errorf("decoding %s: %w", other.Name, err)
		}
		counts, err := bitvec.Count(targetVec, vec)
		if err != nil {
			return models.Ranking{}, fmt.Errorf("counting %s against %s: %w", target, other.Name, err)
		}
		value := m.Eval(counts)
		if !isFinite(value) {
			skipped++
			continue
		}
		entries = append(entries, models.RankingEntry{Name: other.Name, Value: value})
	}

	descending := m.Kind == measure.KindSimilarity
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			if descending {
				return entries[i].Value > entries[j].Value
			}
			return entries[i].Value < entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})

	return models.Ranking{
		Measure: m.Name,
		Kind:    string(m.Kind),
		Target:  target,
		Entries: entries,
		Skipped: skipped,
	}, nil
}

func (s *CompareService) staleRanking(ctx context.Context, key string) (models.Ranking, bool) {
	if s.staleTTL <= 0 || s.cache == nil {
		return models.Ranking{}, false
	}
	payload, _, ok, err := s.cache.GetStale(ctx, key, s.staleTTL)
	if err != nil || !ok {
		return models.Ranking{}, false
	}
	var rk models.Ranking
	if err := json.Unmarshal(payload, &rk); err != nil {
		return models.Ranking{}, false
	}
	rk.Stale = true
	observability.StaleServesTotal.WithLabelValues("ranking").Inc()
	return rk, true
}

func truncateRanking(rk models.Ranking, limit int) models.Ranking {
	if limit > 0 && len(rk.Entries) > limit {
		rk.Entries = rk.Entries[:limit]
	}
	return rk
}

// Matrix computes the symmetric pairwise matrix of the measure over the named
// fingerprints (all stored fingerprints when names is empty, capped by
// config). Cells where the measure is undefined or the pair's lengths differ
// are nil. Concurrent identical computations collapse to one flight.
func (s *CompareService) Matrix(ctx context.Context, measureName string, names []string) (models.SimilarityMatrix, error) {
	m, ok := measure.Lookup(measureName)
	if !ok {
		return models.SimilarityMatrix{}, fmt.Errorf("%w: %s", ErrUnknownMeasure, measureName)
	}
	logger := loggerFromContext(ctx)

	if len(names) == 0 {
		all, err := s.store.Names(ctx)
		if err != nil {
			return models.SimilarityMatrix{}, fmt.Errorf("listing fingerprints for matrix: %w", err)
		}
		names = all
	}
	if s.maxMatrixNames > 0 && len(names) > s.maxMatrixNames {
		return models.SimilarityMatrix{}, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyNames, len(names), s.maxMatrixNames)
	}

	key := s.cacheKey("matrix", m.Name, strings.Join(names, ","))
	if payload, hit := s.cacheGet(ctx, key); hit {
		var mx models.SimilarityMatrix
		if err := json.Unmarshal(payload, &mx); err == nil {
			observability.CacheHitsTotal.WithLabelValues("matrix").Inc()
			return mx, nil
		}
	}

	concurrentMisses := s.stampedeTracker.begin("matrix", key)
	defer s.stampedeTracker.end(key)

	compute := func() ([]byte, error) {
		mx, err := s.computeMatrix(ctx, m, names)
		if err != nil {
			return nil, err
		}
		return json.Marshal(mx)
	}

	payload, err := s.runCoalesced(ctx, key, concurrentMisses, compute)
	if err != nil {
		if errors.Is(err, store.ErrFingerprintNotFound) {
			return models.SimilarityMatrix{}, err
		}
		if stale, ok := s.staleMatrix(ctx, key); ok {
			if logger != nil {
				logger.Info("serving stale matrix", zap.String("measure", m.Name), zap.Error(err))
			}
			return stale, nil
		}
		return models.SimilarityMatrix{}, fmt.Errorf("matrix by %s: %w", m.Name, err)
	}

	s.cacheSetRaw(ctx, key, payload)
	var mx models.SimilarityMatrix
	if err := json.Unmarshal(payload, &mx); err != nil {
		return models.SimilarityMatrix{}, fmt.Errorf("decoding matrix payload: %w", err)
	}
	return mx, nil
}

func (s *CompareService) computeMatrix(ctx context.Context, m measure.Measure, names []string) (models.SimilarityMatrix, error) {
	vecs := make([]bitvec.Packed, len(names))
	for i, name := range names {
		fp, err := s.store.Get(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrFingerprintNotFound) {
				return models.SimilarityMatrix{}, fmt.Errorf("%w: %s", store.ErrFingerprintNotFound, name)
			}
			return models.SimilarityMatrix{}, err
		}
		vec, err := bitvec.ParsePacked(fp.Bits)
		if err != nil {
			return models.SimilarityMatrix{}, fmt.Errorf("decoding %s: %w", name, err)
		}
		vecs[i] = vec
	}

	values := make([][]*float64, len(names))
	for i := range values {
		values[i] = make([]*float64, len(names))
	}
	for i := 0; i < len(names); i++ {
		for j := i; j < len(names); j++ {
			if err := ctx.Err(); err != nil {
				return models.SimilarityMatrix{}, err
			}
			if vecs[i].Len() != vecs[j].Len() {
				continue
			}
			counts, err := bitvec.Count(vecs[i], vecs[j])
			if err != nil {
				return models.SimilarityMatrix{}, fmt.Errorf("counting %s against %s: %w", names[i], names[j], err)
			}
			observability.MatrixCellsTotal.Inc()
			value := m.Eval(counts)
			if !isFinite(value) {
				continue
			}
			v := value
			values[i][j] = &v
			values[j][i] = &v
		}
	}

	return models.SimilarityMatrix{
		Measure: m.Name,
		Kind:    string(m.Kind),
		Names:   names,
		Values:  values,
	}, nil
}

func (s *CompareService) staleMatrix(ctx context.Context, key string) (models.SimilarityMatrix, bool) {
	if s.staleTTL <= 0 || s.cache == nil {
		return models.SimilarityMatrix{}, false
	}
	payload, _, ok, err := s.cache.GetStale(ctx, key, s.staleTTL)
	if err != nil || !ok {
		return models.SimilarityMatrix{}, false
	}
	var mx models.SimilarityMatrix
	if err := json.Unmarshal(payload, &mx); err != nil {
		return models.SimilarityMatrix{}, false
	}
	mx.Stale = true
	observability.StaleServesTotal.WithLabelValues("matrix").Inc()
	return mx, true
}

// PutFingerprint upserts a validated fingerprint and returns the stored form
// together with whether it was newly created.
func (s *CompareService) PutFingerprint(ctx context.Context, name, bits string) (models.Fingerprint, bool, error) {
	created, err := s.store.Put(ctx, models.Fingerprint{Name: name, Bits: bits})
	if err != nil {
		return models.Fingerprint{}, false, err
	}
	s.revision.Add(1)
	fp, err := s.store.Get(ctx, name)
	if err != nil {
		return models.Fingerprint{}, created, err
	}
	return fp, created, nil
}

// GetFingerprint returns the stored fingerprint, or store.ErrFingerprintNotFound.
func (s *CompareService) GetFingerprint(ctx context.Context, name string) (models.Fingerprint, error) {
	return s.store.Get(ctx, name)
}

// DeleteFingerprint removes the fingerprint, or returns store.ErrFingerprintNotFound.
func (s *CompareService) DeleteFingerprint(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.revision.Add(1)
	return nil
}

// ListFingerprints returns stored fingerprints ordered by name.
func (s *CompareService) ListFingerprints(ctx context.Context, limit, offset int) ([]models.Fingerprint, error) {
	return s.store.List(ctx, limit, offset)
}

// FingerprintNames returns all stored fingerprint names ordered by name.
func (s *CompareService) FingerprintNames(ctx context.Context) ([]string, error) {
	return s.store.Names(ctx)
}

// PutBatch writes validated fingerprints in one transaction. Implements
// ingest.BatchWriter so bulk imports invalidate cached aggregates too.
func (s *CompareService) PutBatch(ctx context.Context, fps []models.Fingerprint) error {
	if err := s.store.PutBatch(ctx, fps); err != nil {
		return err
	}
	if len(fps) > 0 {
		s.revision.Add(1)
	}
	return nil
}

// StorePing reports fingerprint store reachability. Used by health checks.
func (s *CompareService) StorePing(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// cacheKey builds a revision-scoped key. The detail is hashed so matrix keys
// over hundreds of names stay within backend key length limits.
func (s *CompareService) cacheKey(surface, measureName, detail string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", surface, measureName, detail, s.revision.Load())))
	return surface + ":" + hex.EncodeToString(sum[:16])
}

func (s *CompareService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	start := time.Now()
	payload, ok, err := s.cache.Get(ctx, key)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		observability.CacheOperationDuration.WithLabelValues("get", "error").Observe(duration)
		return nil, false
	}
	observability.CacheOperationDuration.WithLabelValues("get", "success").Observe(duration)
	return payload, ok
}

func (s *CompareService) cacheSetRaw(ctx context.Context, key string, payload []byte) {
	if s.cache == nil || payload == nil {
		return
	}
	start := time.Now()
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(err)).Inc()
		observability.CacheOperationDuration.WithLabelValues("set", "error").Observe(time.Since(start).Seconds())
		if logger := loggerFromContext(ctx); logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	observability.CacheOperationDuration.WithLabelValues("set", "success").Observe(time.Since(start).Seconds())
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

// vectorCounts parses both vectors (and the optional mask) into the packed
// representation and counts the contingency table through the word-level
// fast path.
func vectorCounts(xBits, yBits, maskBits string) (bitvec.Counts, error) {
	x, err := bitvec.ParsePacked(xBits)
	if err != nil {
		return bitvec.Counts{}, fmt.Errorf("vector x: %w", err)
	}
	y, err := bitvec.ParsePacked(yBits)
	if err != nil {
		return bitvec.Counts{}, fmt.Errorf("vector y: %w", err)
	}
	var mask bitvec.Vector
	if maskBits != "" {
		m, err := bitvec.ParsePacked(maskBits)
		if err != nil {
			return bitvec.Counts{}, fmt.Errorf("mask: %w", err)
		}
		mask = m
	}
	return bitvec.CountMasked(x, y, mask)
}

func toModelCounts(c bitvec.Counts) models.Counts {
	return models.Counts{A: c.A, B: c.B, C: c.C, D: c.D}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
