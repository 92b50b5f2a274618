// internal/watchdog/checker.go
package watchdog

import "time"

// Check performs one evaluation pass over all active entries.
// A no-op while the watchdog is disabled.
//
// For each active entry:
//   - elapsed >= timeout: transition to Unresponsive and dispatch
//     recovery, unless the entry is already Unresponsive or Recovered
//     (exactly one recovery per episode).
//   - elapsed >= 75% of timeout: transition Idle/Healthy to Warning.
//
// Thresholds derive from each entry's own timeout, so detection latency
// for a timeout is bounded by timeout + check interval, not exact.
func (w *Watchdog) Check() {
	w.mu.Lock()

	if !w.enabled {
		w.mu.Unlock()
		return
	}

	w.checksPerformed++
	now := w.clock()

	for i := 0; i < w.used; i++ {
		e := &w.entries[i]
		if !e.active {
			continue
		}

		elapsed := time.Duration(now-e.lastHeartbeat) * time.Millisecond

		switch {
		case elapsed >= e.timeout:
			if e.state == StateUnresponsive || e.state == StateRecovered {
				// Episode already fired; a fresh heartbeat resets it.
				continue
			}

			e.state = StateUnresponsive
			e.timeoutCount++
			w.totalTimeouts++

			w.log.Warn("activity unresponsive",
				"name", e.name, "slot", i, "elapsed", elapsed)

			// The callback is caller-supplied code of unknown duration
			// and may call back into this watchdog, including for the
			// slot being recovered. The lock MUST NOT be held across it.
			name := e.name
			cb := e.recover
			w.mu.Unlock()

			if cb != nil {
				cb(name, elapsed)
			} else {
				w.defaultRecovery(name, elapsed)
			}

			w.mu.Lock()

			// A heartbeat arriving during the callback sets Healthy;
			// this write clobbers it back to Recovered. Intentionally
			// preserved as-is — see the snapshot/report documentation.
			e.state = StateRecovered
			e.recoveryCount++
			w.totalRecoveries++

		case elapsed >= e.timeout*3/4:
			if e.state == StateIdle || e.state == StateHealthy {
				e.state = StateWarning
				w.log.Warn("activity entering warning zone",
					"name", e.name, "slot", i, "elapsed", elapsed)
			}
		}
	}

	w.mu.Unlock()
}

// defaultRecovery is the report-only action used when an entry was
// registered without a callback.
func (w *Watchdog) defaultRecovery(name string, elapsed time.Duration) {
	w.log.Error("default recovery: activity stopped responding",
		"name", name, "elapsed", elapsed)
}
