// internal/watchdog/runner.go
package watchdog

import (
	"context"
	"time"
)

// Run executes Check on the configured interval until ctx is done.
// One goroutine. No overlap: a recovery callback that never returns
// stalls the loop permanently, which is a documented liveness risk of
// the single-threaded checker design.
func (w *Watchdog) Run(ctx context.Context) {
	w.log.Info("watchdog checker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watchdog checker stopped")
			return
		case <-ticker.C:
			w.Check()
		}
	}
}
