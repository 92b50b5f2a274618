// internal/watchdog/errors.go
package watchdog

import "errors"

// ErrRegistryFull is returned by Register when every slot is allocated.
// Capacity is fixed at construction; the caller may choose not to monitor
// the activity or rebuild the watchdog with a larger table.
var ErrRegistryFull = errors.New("watchdog: registry full")

// ErrInvalidTimeout is returned by Register for a non-positive timeout.
var ErrInvalidTimeout = errors.New("watchdog: timeout must be positive")

// ErrEmptyName is returned by Register for an empty activity name.
var ErrEmptyName = errors.New("watchdog: activity name must not be empty")
