// internal/watchdog/watchdog.go
package watchdog

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the number of entry slots when Config.Capacity is zero.
	DefaultCapacity = 8

	// DefaultCheckInterval is the checker cadence when Config.CheckInterval is zero.
	DefaultCheckInterval = 1000 * time.Millisecond

	// MaxNameLen bounds the stored activity name. Longer names are truncated.
	MaxNameLen = 23
)

// Slot identifies one registered activity. A slot, once returned by
// Register, refers to the same logical entry until Unregister; slots
// are never reused within the life of the Watchdog.
type Slot int

// RecoveryFunc is invoked once per unresponsive episode, outside the
// registry lock. It receives the activity name and the elapsed time
// since the last heartbeat at the moment the timeout was detected.
type RecoveryFunc func(name string, elapsed time.Duration)

type entry struct {
	active        bool
	name          string
	timeout       time.Duration
	lastHeartbeat int64 // clock milliseconds
	state         State
	recover       RecoveryFunc

	heartbeatCount uint64
	timeoutCount   uint64
	recoveryCount  uint64
}

// Config is the immutable construction-time configuration.
type Config struct {
	// Capacity is the fixed size of the entry table.
	Capacity int

	// CheckInterval is the cadence of the Run loop.
	CheckInterval time.Duration

	// Clock overrides the liveness time source. Nil means UptimeClock().
	Clock Clock
}

// Watchdog owns all mutable monitoring state. All registry access is
// serialized through one mutex; the only operation running without it
// is the recovery callback itself (see checker.go).
type Watchdog struct {
	log      *slog.Logger
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	entries []entry // pre-allocated arena; addressed by Slot, never reallocated
	used    int     // high-water mark of allocated slots
	enabled bool

	checksPerformed uint64
	totalHeartbeats uint64
	totalTimeouts   uint64
	totalRecoveries uint64
}

// New builds a Watchdog with the given configuration. Zero-value fields
// of cfg fall back to the package defaults.
func New(cfg Config, log *slog.Logger) *Watchdog {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = UptimeClock()
	}

	return &Watchdog{
		log:      log,
		clock:    cfg.Clock,
		interval: cfg.CheckInterval,
		entries:  make([]entry, cfg.Capacity),
		enabled:  true,
	}
}

// Register allocates a slot for a named activity.
// cb may be nil; the default recovery action logs and continues.
func (w *Watchdog) Register(name string, timeout time.Duration, cb RecoveryFunc) (Slot, error) {
	if name == "" {
		return -1, ErrEmptyName
	}
	if timeout <= 0 {
		return -1, ErrInvalidTimeout
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.used >= len(w.entries) {
		w.log.Warn("registry full, cannot register activity", "name", name)
		return -1, ErrRegistryFull
	}

	slot := Slot(w.used)
	w.used++

	w.entries[slot] = entry{
		active:        true,
		name:          name,
		timeout:       timeout,
		lastHeartbeat: w.clock(),
		state:         StateIdle,
		recover:       cb,
	}

	w.log.Info("registered activity",
		"name", name, "slot", int(slot), "timeout", timeout)
	return slot, nil
}

// Heartbeat records a liveness signal for slot.
// An out-of-range or inactive slot is a silent no-op: heartbeats are a
// hot path and callers should not have to handle rare misuse.
// A heartbeat forces the state to Healthy from any prior state,
// which also ends a timeout episode.
func (w *Watchdog) Heartbeat(slot Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entryAt(slot)
	if e == nil {
		return
	}

	e.lastHeartbeat = w.clock()
	e.state = StateHealthy
	e.heartbeatCount++
	w.totalHeartbeats++
}

// Unregister marks the slot inactive. The slot is retained for audit
// and statistics; it is never handed out again. Out-of-range or
// already-inactive slots are silent no-ops.
func (w *Watchdog) Unregister(slot Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entryAt(slot)
	if e == nil {
		return
	}

	w.log.Info("unregistered activity", "name", e.name, "slot", int(slot))
	e.active = false
}

// SetEnabled suspends or resumes checker evaluation globally.
// Heartbeats are still recorded while disabled.
func (w *Watchdog) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.enabled = enabled
	w.log.Info("watchdog enabled flag changed", "enabled", enabled)
}

// Enabled reports whether checker evaluation is active.
func (w *Watchdog) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// State returns the current state of slot, or StateIdle if the slot is
// out of range or inactive.
func (w *Watchdog) State(slot Slot) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.entryAt(slot)
	if e == nil {
		return StateIdle
	}
	return e.state
}

// HealthyCount returns the number of active entries currently Healthy.
func (w *Watchdog) HealthyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for i := 0; i < w.used; i++ {
		if w.entries[i].active && w.entries[i].state == StateHealthy {
			n++
		}
	}
	return n
}

// entryAt resolves a slot to its live entry. Callers must hold w.mu.
// Returns nil for out-of-range or inactive slots.
func (w *Watchdog) entryAt(slot Slot) *entry {
	if slot < 0 || int(slot) >= w.used {
		return nil
	}
	e := &w.entries[slot]
	if !e.active {
		return nil
	}
	return e
}
