package observability

import (
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry syncs buffered log entries before exit. Metrics are pull-based and need no flush.
func FlushTelemetry(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}
