package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/mkadlec/binsim/internal/validation"
)

// ErrorCategory is a stable label for error classification in logs and metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategorySourceNotFound ErrorCategory = "source_not_found"
	ErrorCategoryRateLimited    ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx    ErrorCategory = "upstream_5xx"
	ErrorCategoryTooLarge       ErrorCategory = "too_large"
	ErrorCategoryParsing        ErrorCategory = "parsing"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryStore          ErrorCategory = "store"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// CategorizeError maps an import error to a stable ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	if errors.Is(err, ErrSourceNotFound) {
		return ErrorCategorySourceNotFound
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimited
	}
	if errors.Is(err, ErrUpstreamFailure) {
		return ErrorCategoryUpstream5xx
	}
	if errors.Is(err, ErrResponseTooLarge) {
		return ErrorCategoryTooLarge
	}

	switch {
	case errors.Is(err, validation.ErrBitsEmpty),
		errors.Is(err, validation.ErrBitsTooShort),
		errors.Is(err, validation.ErrBitsTooLong),
		errors.Is(err, validation.ErrBitsInvalidChar),
		errors.Is(err, validation.ErrNameEmpty),
		errors.Is(err, validation.ErrNameTooLong),
		errors.Is(err, validation.ErrNameInvalidChars):
		return ErrorCategoryValidation
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") {
		return ErrorCategoryTimeout
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") {
		return ErrorCategoryNetwork
	}

	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") || strings.Contains(errStr, "invalid JSON") {
		return ErrorCategoryParsing
	}

	if strings.Contains(errStr, "invalid") || strings.Contains(errStr, "validation") {
		return ErrorCategoryValidation
	}

	if strings.Contains(errStr, "batch") || strings.Contains(errStr, "store") {
		return ErrorCategoryStore
	}

	return ErrorCategoryUnknown
}
