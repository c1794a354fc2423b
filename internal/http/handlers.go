package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkadlec/binsim/bitvec"
	"github.com/mkadlec/binsim/internal/buildinfo"
	"github.com/mkadlec/binsim/internal/health"
	"github.com/mkadlec/binsim/internal/ingest"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
	"github.com/mkadlec/binsim/internal/service"
	"github.com/mkadlec/binsim/internal/store"
	"github.com/mkadlec/binsim/internal/validation"
	"github.com/mkadlec/binsim/measure"
)

// Limits bounds what the API accepts per request.
type Limits struct {
	MinVectorLen     int
	MaxVectorLen     int
	MaxBatchMeasures int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service          *service.CompareService
	importer         *ingest.Importer
	healthConfig     *health.Config
	logger           *zap.Logger
	rateLimiter      *rate.Limiter
	limits           Limits
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	svc *service.CompareService,
	importer *ingest.Importer,
	healthConfig *health.Config,
	logger *zap.Logger,
	rateLimiter *rate.Limiter,
	limits Limits,
) *Handler {
	return &Handler{
		service:      svc,
		importer:     importer,
		healthConfig: healthConfig,
		logger:       logger,
		rateLimiter:  rateLimiter,
		limits:       limits,
	}
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := health.Evaluate(r.Context(), h.healthConfig)

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.Status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.Status),
			zap.String("reason", result.Reason))
	}
	h.healthStatusPrev = result.Status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if h.healthConfig != nil && h.healthConfig.StorePing != nil {
		if h.healthConfig.StorePing(r.Context()) == nil {
			checks["store"] = "healthy"
		} else {
			checks["store"] = "unhealthy"
		}
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.Status,
		"service":   "binsim",
		"version":   buildinfo.Version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// ListMeasures handles GET /v1/measures. Supports kind and family query filters.
func (h *Handler) ListMeasures(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	family := strings.TrimSpace(r.URL.Query().Get("family"))

	var catalog []measure.Measure
	switch {
	case kind != "":
		switch measure.Kind(kind) {
		case measure.KindSimilarity, measure.KindDistance:
			catalog = measure.ByKind(measure.Kind(kind))
		default:
			writeError(w, r, http.StatusBadRequest, "INVALID_KIND", "kind must be similarity or distance")
			return
		}
	case family != "":
		catalog = measure.ByFamily(measure.Family(family))
		if len(catalog) == 0 {
			writeError(w, r, http.StatusBadRequest, "INVALID_FAMILY", "unknown measure family: "+family)
			return
		}
	default:
		catalog = measure.All()
	}

	infos := make([]models.MeasureInfo, 0, len(catalog))
	for _, m := range catalog {
		infos = append(infos, models.MeasureInfo{
			Name:    m.Name,
			Kind:    string(m.Kind),
			Family:  string(m.Family),
			Aliases: m.Aliases,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"measures": infos})
}

// compareRequest is the body of both compare endpoints. Bits accept the
// "0101" string form and the [0,1,0,1] array form.
type compareRequest struct {
	X        models.BitsField `json:"x"`
	Y        models.BitsField `json:"y"`
	Mask     models.BitsField `json:"mask"`
	Measures []string         `json:"measures"`
}

// validateCompareRequest normalizes a request's vectors, enforcing length
// bounds, the 0/1 alphabet and pairwise length agreement.
func (h *Handler) validateCompareRequest(req compareRequest) (x, y, mask string, err error) {
	x, err = validation.ValidateBitString(req.X.String(), h.limits.MinVectorLen, h.limits.MaxVectorLen)
	if err != nil {
		return "", "", "", err
	}
	y, err = validation.ValidateBitString(req.Y.String(), h.limits.MinVectorLen, h.limits.MaxVectorLen)
	if err != nil {
		return "", "", "", err
	}
	if err = validation.ValidatePair(x, y); err != nil {
		return "", "", "", err
	}
	if req.Mask.String() != "" {
		mask, err = validation.ValidateBitString(req.Mask.String(), h.limits.MinVectorLen, h.limits.MaxVectorLen)
		if err != nil {
			return "", "", "", err
		}
		if err = validation.ValidatePair(x, mask); err != nil {
			return "", "", "", err
		}
	}
	return x, y, mask, nil
}

// Compare handles POST /v1/compare/{measure}.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	measureName := mux.Vars(r)["measure"]

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body: "+err.Error())
		return
	}
	x, y, mask, err := h.validateCompareRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VECTOR", err.Error())
		return
	}

	health.RecordQuery()
	result, err := h.service.Compare(r.Context(), measureName, x, y, mask)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, result)
}

// CompareBatch handles POST /v1/compare. Omitted measures means the full
// catalog; per-measure failures ride inside their entry, so the response is
// 200 even when some entries carry errors.
func (h *Handler) CompareBatch(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body: "+err.Error())
		return
	}
	if h.limits.MaxBatchMeasures > 0 && len(req.Measures) > h.limits.MaxBatchMeasures {
		writeError(w, r, http.StatusBadRequest, "TOO_MANY_MEASURES",
			"at most "+strconv.Itoa(h.limits.MaxBatchMeasures)+" measures per batch")
		return
	}
	x, y, mask, err := h.validateCompareRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VECTOR", err.Error())
		return
	}

	health.RecordQuery()
	result, err := h.service.CompareBatch(r.Context(), req.Measures, x, y, mask)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, result)
}

// putFingerprintRequest is the body of PUT /v1/fingerprints/{name}.
type putFingerprintRequest struct {
	Bits models.BitsField `json:"bits"`
}

// PutFingerprint handles PUT /v1/fingerprints/{name}. Upserts: 201 on
// create, 200 on update.
func (h *Handler) PutFingerprint(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(mux.Vars(r)["name"], 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_NAME", err.Error())
		return
	}

	var req putFingerprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body: "+err.Error())
		return
	}
	bits, err := validation.ValidateBitString(req.Bits.String(), h.limits.MinVectorLen, h.limits.MaxVectorLen)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VECTOR", err.Error())
		return
	}

	fp, created, err := h.service.PutFingerprint(r.Context(), name, bits)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, fp)
}

// GetFingerprint handles GET /v1/fingerprints/{name}.
func (h *Handler) GetFingerprint(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	fp, err := h.service.GetFingerprint(r.Context(), name)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, fp)
}

// DeleteFingerprint handles DELETE /v1/fingerprints/{name}.
func (h *Handler) DeleteFingerprint(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.service.DeleteFingerprint(r.Context(), name); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	w.WriteHeader(http.StatusNoContent)
}

// ListFingerprints handles GET /v1/fingerprints with limit and offset query params.
func (h *Handler) ListFingerprints(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "offset must be a non-negative integer")
		return
	}

	fps, err := h.service.ListFingerprints(r.Context(), limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, map[string]interface{}{"fingerprints": fps, "count": len(fps)})
}

// importRequest is the JSON body of POST /v1/fingerprints:import when the
// source is a URL rather than an inline NDJSON stream.
type importRequest struct {
	URL string `json:"url"`
}

// ImportFingerprints handles POST /v1/fingerprints:import. An
// application/x-ndjson body is ingested directly; otherwise the JSON body
// must name a source URL.
func (h *Handler) ImportFingerprints(w http.ResponseWriter, r *http.Request) {
	var report models.ImportReport
	var err error

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-ndjson") {
		report, err = h.importer.ImportReader(r.Context(), r.Body)
	} else {
		var req importRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body: "+decodeErr.Error())
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "url is required (or send application/x-ndjson)")
			return
		}
		report, err = h.importer.ImportURL(r.Context(), req.URL)
	}

	if err != nil {
		health.RecordError()
		if errors.Is(err, ingest.ErrSourceNotFound) {
			writeError(w, r, http.StatusNotFound, "SOURCE_NOT_FOUND", err.Error())
			return
		}
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Warn("import failed", zap.Error(err))
		}
		writeError(w, r, http.StatusServiceUnavailable, "IMPORT_FAILED", "import did not complete")
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, report)
}

// GetNeighbors handles GET /v1/fingerprints/{name}/neighbors?measure=&limit=.
func (h *Handler) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	measureName := strings.TrimSpace(r.URL.Query().Get("measure"))
	if measureName == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "measure query parameter is required")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
		return
	}

	health.RecordQuery()
	ranking, err := h.service.Rank(r.Context(), measureName, name, limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, ranking)
}

// GetMatrix handles GET /v1/matrix?measure=&names=a,b,c. Omitted names means
// every stored fingerprint, capped by config.
func (h *Handler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	measureName := strings.TrimSpace(r.URL.Query().Get("measure"))
	if measureName == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "measure query parameter is required")
		return
	}
	var names []string
	if raw := strings.TrimSpace(r.URL.Query().Get("names")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	health.RecordQuery()
	matrix, err := h.service.Matrix(r.Context(), measureName, names)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	health.RecordSuccess()
	writeJSON(w, http.StatusOK, matrix)
}

// writeDomainError maps service and store errors to API error responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownMeasure):
		writeError(w, r, http.StatusNotFound, "UNKNOWN_MEASURE", err.Error())
	case errors.Is(err, service.ErrUndefinedResult):
		writeError(w, r, http.StatusUnprocessableEntity, "UNDEFINED_RESULT", err.Error())
	case errors.Is(err, store.ErrFingerprintNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrTooManyNames):
		writeError(w, r, http.StatusBadRequest, "TOO_MANY_NAMES", err.Error())
	case errors.Is(err, bitvec.ErrLengthMismatch), errors.Is(err, bitvec.ErrInvalidBit), errors.Is(err, bitvec.ErrEmptyVector):
		writeError(w, r, http.StatusBadRequest, "INVALID_VECTOR", err.Error())
	default:
		health.RecordError()
		health.NotifyDegraded()
		writeError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "unable to serve request")
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Debug("store error", zap.Error(err))
		}
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// GetTestStatus handles GET /test. Returns current simulated state.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := 60 * time.Second
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		window = h.healthConfig.DegradedWindow
	}
	errors, _ := health.ErrorRate(window)

	cfg := make(map[string]interface{})
	if h.healthConfig != nil {
		overloadThreshold := 0
		if h.healthConfig.RateLimitRPS > 0 {
			overloadThreshold = int(float64(h.healthConfig.RateLimitRPS) *
				h.healthConfig.OverloadWindow.Seconds() *
				float64(h.healthConfig.OverloadThresholdPct) / 100)
		}
		cfg["rate_limit_rps"] = h.healthConfig.RateLimitRPS
		cfg["rate_limit_burst"] = h.healthConfig.RateLimitBurst
		cfg["overload_threshold"] = overloadThreshold
		cfg["overload_window_seconds"] = h.healthConfig.OverloadWindow.Seconds()
		cfg["degraded_error_pct"] = h.healthConfig.DegradedErrorPct
	}

	resp := map[string]interface{}{
		"total_requests_in_window":  health.RequestCount(window),
		"denied_requests_in_window": health.DenialCount(window),
		"errors_in_window":          errors,
		"window_length":             window.String(),
		"auto_clear":                !health.IsRecoveryDisabled(),
		"config":                    cfg,
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostTestAction handles POST /test/{action} for load, error, reset, shutdown, prevent_clear, fail_clear, clear.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "load":
		h.postTestLoad(w, r)
	case "error":
		h.postTestError(w, r)
	case "reset":
		h.postTestReset(w, r)
	case "shutdown":
		h.postTestShutdown(w, r)
	case "prevent_clear":
		h.postTestPreventClear(w, r)
	case "fail_clear":
		h.postTestFailClear(w, r)
	case "clear":
		h.postTestClear(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

// postTestLoad simulates load by recording the specified number of requests,
// respecting rate limits if configured. Returns accepted/denied counts and current health state.
func (h *Handler) postTestLoad(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		body.Count = 10
	}
	var accepted, denied int
	if h.rateLimiter != nil {
		for i := 0; i < body.Count; i++ {
			if h.rateLimiter.Allow() {
				health.RecordSuccess()
				health.RecordQuery()
				accepted++
			} else {
				health.RecordDenied()
				observability.RateLimitDeniedTotal.Inc()
				denied++
			}
		}
	} else {
		health.RecordSuccessN(body.Count)
		for i := 0; i < body.Count; i++ {
			health.RecordQuery()
		}
		accepted = body.Count
	}
	result := health.Evaluate(r.Context(), h.healthConfig)
	msg := "Recorded " + strconv.Itoa(accepted) + " accepted"
	if denied > 0 {
		msg += ", " + strconv.Itoa(denied) + " denied"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"action":   "load",
		"message":  msg,
		"state":    result.Status,
		"accepted": accepted,
		"denied":   denied,
	})
}

// postTestError simulates errors by recording the specified number of error events.
// Returns current error rate percentage and health state after recording errors.
func (h *Handler) postTestError(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		body.Count = 1
	}
	health.RecordErrorN(body.Count)
	window := 60 * time.Second
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		window = h.healthConfig.DegradedWindow
	}
	errors, total := health.ErrorRate(window)
	pct := 0
	if total > 0 {
		pct = errors * 100 / total
	}
	result := health.Evaluate(r.Context(), h.healthConfig)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"action":         "error",
		"message":        "Recorded " + strconv.Itoa(body.Count) + " errors",
		"state":          result.Status,
		"error_rate_pct": pct,
	})
}

// postTestReset clears all simulated state including sliding windows,
// recovery overrides, and shutdown flag. Used for test cleanup.
func (h *Handler) postTestReset(w http.ResponseWriter, r *http.Request) {
	health.Reset()
	health.ClearRecoveryOverrides()
	health.SetShuttingDown(false)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "reset",
		"message": "All simulated state cleared",
	})
}

// postTestShutdown sets the service shutdown flag, triggering graceful shutdown behavior.
// Health checks will return shutting-down status after this is called.
func (h *Handler) postTestShutdown(w http.ResponseWriter, r *http.Request) {
	health.SetShuttingDown(true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "shutdown",
		"message": "Shutting-down flag set",
	})
}

// postTestPreventClear disables automatic recovery clearing for degraded state testing.
// Prevents recovery from automatically clearing degraded state when conditions improve.
func (h *Handler) postTestPreventClear(w http.ResponseWriter, r *http.Request) {
	health.SetRecoveryDisabled(true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "prevent_clear",
		"message": "Auto-recovery disabled",
	})
}

// postTestFailClear simulates a failed recovery attempt and advances the recovery delay sequence.
// Returns the next recovery delay time. If recovery sequence is exhausted, sets shutting-down flag.
func (h *Handler) postTestFailClear(w http.ResponseWriter, r *http.Request) {
	health.SetForceFailNextAttempt(true)
	resp := map[string]interface{}{
		"ok":      true,
		"action":  "fail_clear",
		"message": "Simulated failed recovery attempt",
	}
	if h.healthConfig != nil && h.healthConfig.DegradedRetryInitial > 0 && h.healthConfig.DegradedRetryMax >= h.healthConfig.DegradedRetryInitial {
		if d, ok := health.GetAndAdvanceNextRecoveryDelay(h.healthConfig.DegradedRetryInitial, h.healthConfig.DegradedRetryMax); ok {
			resp["next_recovery"] = d.String()
		} else {
			resp["next_recovery"] = "shutting-down"
			health.SetShuttingDown(true)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// postTestClear forces successful recovery by clearing degraded state and recovery overrides.
// Used to manually clear degraded state during testing.
func (h *Handler) postTestClear(w http.ResponseWriter, r *http.Request) {
	health.Reset()
	health.ClearRecoveryOverrides()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "clear",
		"message": "Recovery forced successful",
	})
}
