// internal/watchdog/clock.go
package watchdog

import "time"

// Clock returns milliseconds since an arbitrary epoch.
// It MUST be monotonically non-decreasing.
type Clock func() int64

// UptimeClock returns a Clock anchored at the moment of the call.
// time.Since reads the runtime's monotonic clock, so the returned
// values never go backwards across wall-clock adjustments.
func UptimeClock() Clock {
	start := time.Now()
	return func() int64 {
		return time.Since(start).Milliseconds()
	}
}
