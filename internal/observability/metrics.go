package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkadlec/binsim/internal/health"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Measure evaluations by canonical measure name. Watch for: error vs ok vs undefined ratio.
	ComparisonsTotal *prometheus.CounterVec

	// Evaluation latency by measure kind. Watch for: p99 growth as vectors get longer.
	ComparisonDuration *prometheus.HistogramVec

	// Measures requested per batch call. Watch for: clients asking for the full catalog.
	BatchSizeMeasures prometheus.Histogram

	// Length in bits of compared vectors. Watch for: workload shift toward long vectors.
	VectorLengthBits prometheus.Histogram

	// Cache hits by cache surface. Hit rate = hits/(hits+misses from rankingsTotal).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend failures by operation and error category. Watch for: backend outages.
	CacheErrorsTotal *prometheus.CounterVec

	// Cache operation latency. Watch for: memcached/redis round trips past 50ms.
	CacheOperationDuration *prometheus.HistogramVec

	// Ranking computations by measure. Watch for: which measures drive load.
	RankingsTotal *prometheus.CounterVec

	// Matrix cells computed. rate() approximates pairwise evaluation throughput.
	MatrixCellsTotal prometheus.Counter

	// Responses served from stale cache after a store failure. Any nonzero rate means degraded.
	StaleServesTotal *prometheus.CounterVec

	// Store operations by op and status. Watch for: error ratio, lock contention.
	StoreOperationsTotal *prometheus.CounterVec

	// Store operation latency. Watch for: busy-timeout stalls.
	StoreOperationDuration *prometheus.HistogramVec

	// Ingest records by outcome. Failed records are skipped, not fatal.
	IngestRecordsTotal *prometheus.CounterVec

	// Retry attempts against ingest HTTP sources. Watch for: high retries = unstable source.
	IngestRetriesTotal prometheus.Counter

	// Import failures by error category. Watch for: parsing spikes = malformed feed.
	IngestFailuresTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Cache warm cycles and failures.
	WarmRunsTotal   prometheus.Counter
	WarmErrorsTotal prometheus.Counter
	WarmDuration    prometheus.Histogram

	// Concurrent misses on one cache key by surface. Nonzero means stampede.
	CacheStampedeDetectedTotal *prometheus.CounterVec

	// Requests that waited on an identical in-flight computation instead of starting their own.
	CoalescedRequestsTotal prometheus.Counter

	// How long coalesced callers waited for the shared result.
	CoalesceWaitSeconds prometheus.Histogram

	// Requests still in flight when shutdown drain started.
	ShutdownInFlight prometheus.Gauge

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparisonsTotal",
			Help: "Total number of measure evaluations by canonical measure name",
		},
		[]string{"measure", "status"},
	)
	ComparisonDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comparisonDurationSeconds",
			Help:    "Measure evaluation latency in seconds by measure kind",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"kind"},
	)
	BatchSizeMeasures = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batchSizeMeasures",
			Help:    "Number of measures requested per batch comparison",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
	VectorLengthBits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vectorLengthBits",
			Help:    "Length in bits of compared fingerprint vectors",
			Buckets: prometheus.ExponentialBuckets(8, 4, 10),
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits by cache surface (ranking, matrix)",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Total number of cache backend failures by operation and error category",
		},
		[]string{"op", "category"},
	)
	CacheOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cacheOperationDurationSeconds",
			Help:    "Cache operation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"op", "status"},
	)
	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankingsTotal",
			Help: "Total number of neighbor rankings computed by measure",
		},
		[]string{"measure"},
	)
	MatrixCellsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matrixCellsTotal",
			Help: "Total number of similarity matrix cells computed",
		},
	)
	StaleServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleServesTotal",
			Help: "Responses served from stale cache after a store failure, by surface",
		},
		[]string{"surface"},
	)
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeOperationsTotal",
			Help: "Total number of fingerprint store operations by op and status",
		},
		[]string{"op", "status"},
	)
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeOperationDurationSeconds",
			Help:    "Fingerprint store operation latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestRecordsTotal",
			Help: "Total number of ingested fingerprint records by outcome",
		},
		[]string{"status"},
	)
	IngestRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestRetriesTotal",
			Help: "Total number of retry attempts against ingest HTTP sources",
		},
	)
	IngestFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestFailuresTotal",
			Help: "Total number of import failures by error category",
		},
		[]string{"category"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	WarmRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warmRunsTotal",
			Help: "Total number of cache warm cycles",
		},
	)
	WarmErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warmErrorsTotal",
			Help: "Total number of cache warm cycle failures",
		},
	)
	WarmDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warmDurationSeconds",
			Help:    "Cache warm cycle duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		},
	)
	CacheStampedeDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheStampedeDetectedTotal",
			Help: "Concurrent cache misses detected on one key by surface (ranking, matrix)",
		},
		[]string{"surface"},
	)
	CoalescedRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coalescedRequestsTotal",
			Help: "Requests served by waiting on an identical in-flight computation",
		},
	)
	CoalesceWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coalesceWaitSeconds",
			Help:    "Time coalesced callers spent waiting for the shared result",
			Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 10},
		},
	)
	ShutdownInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "Requests still in flight when shutdown drain started",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ComparisonsTotal, ComparisonDuration, BatchSizeMeasures, VectorLengthBits,
		CacheHitsTotal, CacheErrorsTotal, CacheOperationDuration,
		RankingsTotal, MatrixCellsTotal, StaleServesTotal,
		StoreOperationsTotal, StoreOperationDuration,
		IngestRecordsTotal, IngestRetriesTotal, IngestFailuresTotal,
		RateLimitDeniedTotal,
		WarmRunsTotal, WarmErrorsTotal, WarmDuration,
		CacheStampedeDetectedTotal, CoalescedRequestsTotal, CoalesceWaitSeconds,
		ShutdownInFlight,
	)
}

// RecordShutdownInFlight records how many requests were still in flight when
// the shutdown drain began.
func RecordShutdownInFlight(n int64) {
	ShutdownInFlight.Set(float64(n))
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with cfg.OverloadWindow. Uses same window as health.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(health.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(health.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
