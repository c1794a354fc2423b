package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FlushTelemetry drains buffered telemetry during shutdown. Prometheus
// metrics are pull-based and need no flush; zap buffers writes, and losing
// the tail would drop the final drain and store-close log lines. Call after
// in-flight requests have finished.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := logger.Sync(); err != nil && !isTerminalSyncError(err) {
		return fmt.Errorf("flushing logs: %w", err)
	}
	return nil
}

// isTerminalSyncError reports sync failures against /dev/stdout or
// /dev/stderr. fsync on a terminal or pipe fails with EINVAL or ENOTTY;
// there is no buffered data to lose there.
func isTerminalSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "/dev/stdout") ||
		strings.Contains(msg, "/dev/stderr") ||
		strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "inappropriate ioctl")
}
