// internal/export/runner.go
package export

import (
	"context"
	"time"
)

// Run exports on the given interval until ctx is done.
// One goroutine. Write failures are logged and retried on the next
// tick via the full-block re-assert in Export.
func (e *Exporter) Run(ctx context.Context, interval time.Duration) {
	e.log.Info("status export started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("status export stopped")
			return
		case <-ticker.C:
			if err := e.Export(); err != nil {
				e.log.Warn("status export failed", "err", err)
			}
		}
	}
}
