// Package ingest bulk-loads fingerprints from NDJSON streams: one
// {"name": "...", "bits": "0101..."} object per line. Bad records are
// collected with their line numbers and never abort the rest of the stream.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
	"github.com/mkadlec/binsim/internal/validation"
)

var (
	ErrSourceNotFound   = errors.New("source not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrResponseTooLarge = errors.New("response exceeds size limit")
)

// BatchWriter is the slice of the store an Importer needs.
type BatchWriter interface {
	PutBatch(ctx context.Context, fps []models.Fingerprint) error
}

// Config bounds what an import accepts and how HTTP sources are fetched.
// Zero values fall back to defaults.
type Config struct {
	MinVectorLen     int
	MaxVectorLen     int
	ChunkSize        int           // fingerprints per PutBatch transaction
	MaxReportErrors  int           // per-record errors kept in the report
	RetryAttempts    int           // total attempts against HTTP sources
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	HTTPTimeout      time.Duration // covers the whole download, not just headers
	MaxResponseBytes int64
}

// Importer reads NDJSON fingerprint streams and writes them in chunks.
type Importer struct {
	writer BatchWriter
	logger *zap.Logger
	client *http.Client
	cfg    Config
}

// NewImporter creates an Importer writing through writer. logger may be nil.
func NewImporter(writer BatchWriter, logger *zap.Logger, cfg Config) *Importer {
	if cfg.MinVectorLen <= 0 {
		cfg.MinVectorLen = 1
	}
	if cfg.MaxVectorLen <= 0 {
		cfg.MaxVectorLen = 1 << 20
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 256
	}
	if cfg.MaxReportErrors <= 0 {
		cfg.MaxReportErrors = 20
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 2 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = 64 << 20
	}
	return &Importer{
		writer: writer,
		logger: logger,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		cfg:    cfg,
	}
}

// importRecord is one NDJSON line. Bits accepts both the "0101" string
// form and the [0,1,0,1] array form.
type importRecord struct {
	Name string           `json:"name"`
	Bits models.BitsField `json:"bits"`
}

// ImportReader ingests NDJSON from r. Blank lines are skipped. Records
// failing validation are counted and reported with their line numbers;
// a store failure aborts and returns what was imported so far.
func (i *Importer) ImportReader(ctx context.Context, r io.Reader) (models.ImportReport, error) {
	var report models.ImportReport

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), i.maxLineBytes())

	chunk := make([]models.Fingerprint, 0, i.cfg.ChunkSize)
	line := 0

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := i.writer.PutBatch(ctx, chunk); err != nil {
			return fmt.Errorf("writing batch ending at line %d: %w", line, err)
		}
		observability.IngestRecordsTotal.WithLabelValues("imported").Add(float64(len(chunk)))
		report.Imported += len(chunk)
		chunk = chunk[:0]
		return nil
	}

	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return report, err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec importRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			i.recordFailure(&report, line, "", fmt.Errorf("invalid JSON: %w", err))
			continue
		}

		name, err := validation.ValidateName(rec.Name, 0)
		if err != nil {
			i.recordFailure(&report, line, rec.Name, err)
			continue
		}
		bits, err := validation.ValidateBitString(rec.Bits.String(), i.cfg.MinVectorLen, i.cfg.MaxVectorLen)
		if err != nil {
			i.recordFailure(&report, line, name, err)
			continue
		}

		chunk = append(chunk, models.Fingerprint{Name: name, Bits: bits})
		if len(chunk) >= i.cfg.ChunkSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("reading stream: %w", err)
	}
	if err := flush(); err != nil {
		return report, err
	}

	if i.logger != nil {
		i.logger.Info("import complete",
			zap.Int("imported", report.Imported),
			zap.Int("failed", report.Failed),
			zap.Int("lines", line))
	}
	return report, nil
}

func (i *Importer) recordFailure(report *models.ImportReport, line int, name string, err error) {
	report.Failed++
	observability.IngestRecordsTotal.WithLabelValues("failed").Inc()
	observability.IngestFailuresTotal.WithLabelValues(string(CategorizeError(err))).Inc()
	if len(report.Errors) < i.cfg.MaxReportErrors {
		report.Errors = append(report.Errors, models.ImportError{Line: line, Name: name, Message: err.Error()})
	}
}

// The array bit form costs up to two bytes per bit, plus JSON overhead.
func (i *Importer) maxLineBytes() int {
	n := 4*i.cfg.MaxVectorLen + 4096
	if n < bufio.MaxScanTokenSize {
		n = bufio.MaxScanTokenSize
	}
	return n
}

// ImportFile ingests NDJSON from a local file.
func (i *Importer) ImportFile(ctx context.Context, path string) (models.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ImportReport{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return models.ImportReport{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return i.ImportReader(ctx, f)
}

// ImportURL fetches NDJSON over http(s) and ingests it. The GET is retried
// with exponential backoff on retryable failures; a stream that already
// started is never retried.
func (i *Importer) ImportURL(ctx context.Context, rawURL string) (models.ImportReport, error) {
	body, err := i.fetchWithRetry(ctx, rawURL)
	if err != nil {
		observability.IngestFailuresTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.ImportReport{}, err
	}
	defer body.Close()
	return i.ImportReader(ctx, body)
}

func (i *Importer) fetchWithRetry(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid source URL %q: scheme must be http or https", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt < i.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			observability.IngestRetriesTotal.Inc()
			delay := i.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := i.fetchOnce(ctx, u.String())
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (i *Importer) fetchOnce(ctx context.Context, urlStr string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := i.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	if err := handleErrorResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &maxBytesReader{r: resp.Body, n: i.cfg.MaxResponseBytes + 1}, nil
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrSourceNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrUpstreamFailure) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") || strings.Contains(errStr, "connection refused") {
		return true
	}

	return false
}

func (i *Importer) calculateBackoff(attempt int) time.Duration {
	delay := float64(i.cfg.RetryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(i.cfg.RetryMaxDelay) {
		delay = float64(i.cfg.RetryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// maxBytesReader fails the stream once the byte allowance runs out. The
// allowance is limit+1 so a stream of exactly the limit still succeeds.
type maxBytesReader struct {
	r io.ReadCloser
	n int64 // bytes still allowed
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.n <= 0 {
		return 0, ErrResponseTooLarge
	}
	if int64(len(p)) > m.n {
		p = p[:m.n]
	}
	n, err := m.r.Read(p)
	m.n -= int64(n)
	return n, err
}

func (m *maxBytesReader) Close() error {
	return m.r.Close()
}
