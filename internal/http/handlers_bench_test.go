package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkadlec/binsim/internal/cache"
	"github.com/mkadlec/binsim/internal/health"
	"github.com/mkadlec/binsim/internal/ingest"
	"github.com/mkadlec/binsim/internal/service"
)

// setupBenchmarkHandler creates a handler over a mock store for benchmarking.
func setupBenchmarkHandler() *Handler {
	st := newMockStore()
	svc := service.NewCompareService(st, cache.NewInMemoryCache(), 5*time.Minute, 0, 0, 0)
	logger := zap.NewNop()
	importer := ingest.NewImporter(svc, logger, ingest.Config{})
	return NewHandler(svc, importer, nil, logger, nil, Limits{
		MinVectorLen:     1,
		MaxVectorLen:     1 << 20,
		MaxBatchMeasures: 128,
	})
}

// createBenchmarkRequest creates an HTTP request for benchmarking.
func createBenchmarkRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(context.WithValue(req.Context(), "correlation_id", "bench-id"))
	req = req.WithContext(context.WithValue(req.Context(), "logger", zap.NewNop()))
	return req
}

// BenchmarkHandler_Compare benchmarks single-measure evaluation end to end.
func BenchmarkHandler_Compare(b *testing.B) {
	handler := setupBenchmarkHandler()
	router := mux.NewRouter()
	router.HandleFunc("/v1/compare/{measure}", handler.Compare)

	body := `{"x":"1100110010101010","y":"1010101011001100"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := createBenchmarkRequest("POST", "/v1/compare/jaccard", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkHandler_CompareBatch_FullCatalog benchmarks the whole measure
// catalog over one vector pair.
func BenchmarkHandler_CompareBatch_FullCatalog(b *testing.B) {
	handler := setupBenchmarkHandler()
	router := mux.NewRouter()
	router.HandleFunc("/v1/compare", handler.CompareBatch)

	body := `{"x":"1100110010101010","y":"1010101011001100"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := createBenchmarkRequest("POST", "/v1/compare", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkHandler_Compare_ValidationError benchmarks rejection of malformed
// vectors.
func BenchmarkHandler_Compare_ValidationError(b *testing.B) {
	handler := setupBenchmarkHandler()
	router := mux.NewRouter()
	router.HandleFunc("/v1/compare/{measure}", handler.Compare)

	body := `{"x":"1102","y":"1010"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := createBenchmarkRequest("POST", "/v1/compare/jaccard", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkHandler_Compare_RateLimited benchmarks rate limiting overhead.
func BenchmarkHandler_Compare_RateLimited(b *testing.B) {
	handler := setupBenchmarkHandler()
	handler.rateLimiter = rate.NewLimiter(rate.Limit(100), 250)

	router := mux.NewRouter()
	router.HandleFunc("/v1/compare/{measure}", handler.Compare)

	body := `{"x":"1100","y":"1010"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := createBenchmarkRequest("POST", "/v1/compare/jaccard", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkHandler_GetHealth benchmarks health check evaluation.
func BenchmarkHandler_GetHealth(b *testing.B) {
	st := newMockStore()
	svc := service.NewCompareService(st, cache.NewInMemoryCache(), 5*time.Minute, 0, 0, 0)
	logger := zap.NewNop()
	importer := ingest.NewImporter(svc, logger, ingest.Config{})

	healthConfig := &health.Config{
		OverloadWindow:         60 * time.Second,
		OverloadThresholdPct:   80,
		RateLimitRPS:           100,
		RateLimitBurst:         250,
		DegradedWindow:         5 * time.Minute,
		DegradedErrorPct:       5,
		DegradedRetryInitial:   1 * time.Second,
		DegradedRetryMax:       30 * time.Second,
		IdleWindow:             10 * time.Minute,
		IdleThresholdReqPerMin: 1,
		MinimumLifespan:        5 * time.Minute,
		StartTime:              time.Now(),
		StorePing:              st.Ping,
	}
	handler := NewHandler(svc, importer, healthConfig, logger, nil, Limits{MinVectorLen: 1, MaxVectorLen: 1 << 20})

	router := mux.NewRouter()
	router.HandleFunc("/health", handler.GetHealth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := createBenchmarkRequest("GET", "/health", "")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
