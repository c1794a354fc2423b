package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkadlec/binsim/internal/buildinfo"
)

// NewLogger builds the process logger: production JSON encoding with ISO8601
// timestamps, level from LOG_LEVEL, and the service identity stamped on
// every line so binsim logs stay attributable in shared aggregation.
func NewLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = parseLogLevel(os.Getenv("LOG_LEVEL"))
	config.InitialFields = map[string]interface{}{
		"service": "binsim",
		"version": buildinfo.Version,
	}

	return config.Build()
}

// parseLogLevel maps a LOG_LEVEL value to a zap level, defaulting to info.
// Case and surrounding whitespace are ignored.
func parseLogLevel(s string) zap.AtomicLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "WARN":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "ERROR":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
