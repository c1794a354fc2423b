//go:build integration
// +build integration

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkadlec/binsim/internal/ingest"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
	"github.com/mkadlec/binsim/internal/testhelpers"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger()
	if err != nil {
		panic(err)
	}
}

// setupIntegrationHandler creates a fully configured handler over a real
// SQLite store and the env-selected cache backend.
func setupIntegrationHandler(t *testing.T, limiter *rate.Limiter) *Handler {
	cfg := testhelpers.GetIntegrationConfig(t)
	svc, _, _ := testhelpers.SetupIntegrationService(t, cfg)
	importer := ingest.NewImporter(svc, testLogger, ingest.Config{})
	return NewHandler(svc, importer, nil, testLogger, limiter, Limits{
		MinVectorLen:     1,
		MaxVectorLen:     1 << 20,
		MaxBatchMeasures: 128,
	})
}

// makeIntegrationRequest makes an HTTP request through the full middleware stack.
func makeIntegrationRequest(t *testing.T, handler *Handler, method, path, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(testLogger))
	router.Use(MetricsMiddleware)
	if handler.rateLimiter != nil {
		router.Use(RateLimitMiddleware(handler.rateLimiter))
	}
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")
	router.HandleFunc("/v1/measures", handler.ListMeasures).Methods("GET")
	router.HandleFunc("/v1/compare", handler.CompareBatch).Methods("POST")
	router.HandleFunc("/v1/compare/{measure}", handler.Compare).Methods("POST")
	router.HandleFunc("/v1/fingerprints:import", handler.ImportFingerprints).Methods("POST")
	router.HandleFunc("/v1/fingerprints", handler.ListFingerprints).Methods("GET")
	router.HandleFunc("/v1/fingerprints/{name}", handler.PutFingerprint).Methods("PUT")
	router.HandleFunc("/v1/fingerprints/{name}", handler.GetFingerprint).Methods("GET")
	router.HandleFunc("/v1/fingerprints/{name}", handler.DeleteFingerprint).Methods("DELETE")
	router.HandleFunc("/v1/fingerprints/{name}/neighbors", handler.GetNeighbors).Methods("GET")
	router.HandleFunc("/v1/matrix", handler.GetMatrix).Methods("GET")

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(context.WithValue(req.Context(), "logger", testLogger))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestIntegration_FingerprintLifecycle verifies put, get, list and delete
// against a real SQLite store.
func TestIntegration_FingerprintLifecycle(t *testing.T) {
	handler := setupIntegrationHandler(t, nil)

	w := makeIntegrationRequest(t, handler, "PUT", "/v1/fingerprints/mol-1", `{"bits":"110010"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT status = %d, want 201. Body: %s", w.Code, w.Body.String())
	}

	w = makeIntegrationRequest(t, handler, "GET", "/v1/fingerprints/mol-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200. Body: %s", w.Code, w.Body.String())
	}
	var fp models.Fingerprint
	if err := json.NewDecoder(w.Body).Decode(&fp); err != nil {
		t.Fatalf("Failed to decode fingerprint: %v", err)
	}
	if fp.Bits != "110010" || fp.Length != 6 {
		t.Errorf("Fingerprint = %+v, want bits 110010 length 6", fp)
	}

	w = makeIntegrationRequest(t, handler, "DELETE", "/v1/fingerprints/mol-1", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", w.Code)
	}

	w = makeIntegrationRequest(t, handler, "GET", "/v1/fingerprints/mol-1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", w.Code)
	}
}

// TestIntegration_NeighborsAndMatrix verifies ranking and matrix computation
// over fingerprints persisted in SQLite, including the cache round trip.
func TestIntegration_NeighborsAndMatrix(t *testing.T) {
	handler := setupIntegrationHandler(t, nil)

	for name, bits := range map[string]string{
		"target": "110010",
		"near":   "110011",
		"far":    "001101",
	} {
		w := makeIntegrationRequest(t, handler, "PUT", "/v1/fingerprints/"+name, `{"bits":"`+bits+`"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("PUT %s status = %d. Body: %s", name, w.Code, w.Body.String())
		}
	}

	w := makeIntegrationRequest(t, handler, "GET", "/v1/fingerprints/target/neighbors?measure=jaccard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("neighbors status = %d. Body: %s", w.Code, w.Body.String())
	}
	var ranking models.Ranking
	if err := json.NewDecoder(w.Body).Decode(&ranking); err != nil {
		t.Fatalf("Failed to decode ranking: %v", err)
	}
	if len(ranking.Entries) != 2 || ranking.Entries[0].Name != "near" {
		t.Errorf("ranking = %+v, want near first of 2", ranking.Entries)
	}

	// Second call should be a cache hit and agree with the first
	w2 := makeIntegrationRequest(t, handler, "GET", "/v1/fingerprints/target/neighbors?measure=jaccard", "")
	if w2.Code != http.StatusOK {
		t.Fatalf("cached neighbors status = %d", w2.Code)
	}
	var ranking2 models.Ranking
	if err := json.NewDecoder(w2.Body).Decode(&ranking2); err != nil {
		t.Fatalf("Failed to decode cached ranking: %v", err)
	}
	if len(ranking2.Entries) != len(ranking.Entries) {
		t.Errorf("cached ranking size = %d, want %d", len(ranking2.Entries), len(ranking.Entries))
	}

	w3 := makeIntegrationRequest(t, handler, "GET", "/v1/matrix?measure=jaccard", "")
	if w3.Code != http.StatusOK {
		t.Fatalf("matrix status = %d. Body: %s", w3.Code, w3.Body.String())
	}
	var matrix models.SimilarityMatrix
	if err := json.NewDecoder(w3.Body).Decode(&matrix); err != nil {
		t.Fatalf("Failed to decode matrix: %v", err)
	}
	if len(matrix.Names) != 3 {
		t.Errorf("matrix covers %d names, want 3", len(matrix.Names))
	}
}

// TestIntegration_ImportNDJSON verifies bulk NDJSON import through to the
// SQLite store.
func TestIntegration_ImportNDJSON(t *testing.T) {
	handler := setupIntegrationHandler(t, nil)

	body := `{"name":"imp-1","bits":"1100"}
{"name":"imp-2","bits":"1010"}
`
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(testLogger))
	router.HandleFunc("/v1/fingerprints:import", handler.ImportFingerprints).Methods("POST")
	req := httptest.NewRequest("POST", "/v1/fingerprints:import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-ndjson")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d. Body: %s", w.Code, w.Body.String())
	}
	var report models.ImportReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.Imported != 2 || report.Failed != 0 {
		t.Errorf("report = %+v, want 2 imported 0 failed", report)
	}

	w2 := makeIntegrationRequest(t, handler, "GET", "/v1/fingerprints", "")
	if w2.Code != http.StatusOK {
		t.Fatalf("list status = %d", w2.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w2.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("stored count = %d, want 2", resp.Count)
	}
}

// TestIntegration_GetHealth_FullStack verifies the health endpoint with real
// dependencies (store ping, cache ping).
func TestIntegration_GetHealth_FullStack(t *testing.T) {
	handler := setupIntegrationHandler(t, nil)

	w := makeIntegrationRequest(t, handler, "GET", "/health", "")

	if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 200 or 503. Body: %s", w.Code, w.Body.String())
		return
	}

	var healthResponse map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&healthResponse); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	status, ok := healthResponse["status"].(string)
	if !ok {
		t.Fatal("Health response missing status")
	}
	validStatuses := []string{"healthy", "degraded", "idle", "overloaded", "shutting-down"}
	found := false
	for _, vs := range validStatuses {
		if status == vs {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Status = %q, want one of %v", status, validStatuses)
	}
}

// TestIntegration_GetMetrics_Format verifies the metrics endpoint returns
// Prometheus-compatible output including domain counters.
func TestIntegration_GetMetrics_Format(t *testing.T) {
	handler := setupIntegrationHandler(t, nil)

	makeIntegrationRequest(t, handler, "POST", "/v1/compare/jaccard", `{"x":"1100","y":"1010"}`)

	w := makeIntegrationRequest(t, handler, "GET", "/metrics", "")

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		return
	}

	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("Metrics missing httpRequestsTotal")
	}
	if !strings.Contains(body, "comparisonsTotal") {
		t.Error("Metrics missing comparisonsTotal")
	}
	if !strings.Contains(body, "cacheHitsTotal") {
		t.Error("Metrics missing cacheHitsTotal")
	}
}

// TestIntegration_RateLimiting_Enforcement verifies that the rate limiter
// denies requests above the configured burst.
func TestIntegration_RateLimiting_Enforcement(t *testing.T) {
	rps, burst := 10, 20
	handler := setupIntegrationHandler(t, rate.NewLimiter(rate.Limit(rps), burst))

	successCount := 0
	deniedCount := 0
	for i := 0; i < burst+10; i++ {
		w := makeIntegrationRequest(t, handler, "GET", "/v1/measures", "")
		switch w.Code {
		case http.StatusOK:
			successCount++
		case http.StatusTooManyRequests:
			deniedCount++
			var errorResponse map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&errorResponse); err == nil {
				errorObj := errorResponse["error"].(map[string]interface{})
				if errorObj["code"] != "RATE_LIMITED" {
					t.Errorf("Error code = %v, want RATE_LIMITED", errorObj["code"])
				}
			}
		}
	}

	if deniedCount == 0 {
		t.Error("No requests were rate limited, but some should be")
	}
	if successCount > burst+5 {
		t.Errorf("Success count = %d, should not significantly exceed burst %d", successCount, burst)
	}
}

// TestIntegration_RateLimiting_Concurrent verifies rate limiting behavior
// under concurrent load.
func TestIntegration_RateLimiting_Concurrent(t *testing.T) {
	handler := setupIntegrationHandler(t, rate.NewLimiter(50, 100))

	const numGoroutines = 10
	const requestsPerGoroutine = 20

	var wg sync.WaitGroup
	results := make(chan int, numGoroutines*requestsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requestsPerGoroutine; j++ {
				w := makeIntegrationRequest(t, handler, "GET", "/v1/measures", "")
				results <- w.Code
			}
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	deniedCount := 0
	for code := range results {
		switch code {
		case http.StatusOK:
			successCount++
		case http.StatusTooManyRequests:
			deniedCount++
		}
	}

	if deniedCount == 0 {
		t.Error("No requests were rate limited under concurrent load")
	}
	total := successCount + deniedCount
	if expected := numGoroutines * requestsPerGoroutine; total != expected {
		t.Errorf("Total requests = %d, want %d", total, expected)
	}
}

// TestIntegration_RateLimiting_Window verifies that requests are allowed
// again once the limiter refills.
func TestIntegration_RateLimiting_Window(t *testing.T) {
	burst := 5
	handler := setupIntegrationHandler(t, rate.NewLimiter(2, burst))

	for i := 0; i < burst; i++ {
		w := makeIntegrationRequest(t, handler, "GET", "/v1/measures", "")
		if w.Code != http.StatusOK {
			t.Errorf("Request %d denied unexpectedly: %d", i, w.Code)
		}
	}

	w := makeIntegrationRequest(t, handler, "GET", "/v1/measures", "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Request after burst should be denied, got %d", w.Code)
	}

	time.Sleep(time.Second + 100*time.Millisecond)

	w2 := makeIntegrationRequest(t, handler, "GET", "/v1/measures", "")
	if w2.Code != http.StatusOK {
		t.Errorf("Request after window should be allowed, got %d", w2.Code)
	}
}
