package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across service, http, cache, store and ingest packages.
func TestMetrics_Usable(t *testing.T) {
	// Route uses path template to avoid cardinality (e.g. /v1/compare/{measure} not /v1/compare/jaccard)
	HTTPRequestsTotal.WithLabelValues("POST", "/v1/compare/{measure}", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/v1/compare/{measure}").Observe(0.01)
	ComparisonsTotal.WithLabelValues("jaccard", "ok").Inc()
	ComparisonsTotal.WithLabelValues("jaccard", "undefined").Inc()
	ComparisonDuration.WithLabelValues("similarity").Observe(0.001)
	BatchSizeMeasures.Observe(12)
	VectorLengthBits.Observe(1024)
	CacheHitsTotal.WithLabelValues("ranking").Inc()
	CacheErrorsTotal.WithLabelValues("get", "timeout").Inc()
	CacheOperationDuration.WithLabelValues("set", "success").Observe(0.002)
	RankingsTotal.WithLabelValues("smc").Inc()
	MatrixCellsTotal.Add(42)
	StaleServesTotal.WithLabelValues("ranking").Inc()
	StoreOperationsTotal.WithLabelValues("put", "success").Inc()
	StoreOperationDuration.WithLabelValues("get").Observe(0.0008)
	IngestRecordsTotal.WithLabelValues("imported").Inc()
	IngestRecordsTotal.WithLabelValues("failed").Inc()
	IngestRetriesTotal.Inc()
	IngestFailuresTotal.WithLabelValues("validation").Inc()
	RateLimitDeniedTotal.Inc()
	WarmRunsTotal.Inc()
	WarmErrorsTotal.Inc()
	WarmDuration.Observe(1.5)
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
	if !strings.Contains(body, "comparisonsTotal") {
		t.Error("MetricsHandler response should contain comparison metrics")
	}
}

// TestRegisterRateLimitGauges verifies the window gauges register exactly once.
func TestRegisterRateLimitGauges(t *testing.T) {
	RegisterRateLimitGauges(time.Minute)
	// Second call must be a no-op, not a duplicate-registration panic.
	RegisterRateLimitGauges(time.Minute)
}
