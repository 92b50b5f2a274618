// internal/watchdog/snapshot.go
package watchdog

// EntrySnapshot is the read-only view of one active entry.
type EntrySnapshot struct {
	Slot           int    `json:"slot"`
	Name           string `json:"name"`
	State          State  `json:"state"`
	TimeoutMS      int64  `json:"timeout_ms"`
	ElapsedMS      int64  `json:"elapsed_ms"`
	HeartbeatCount uint64 `json:"heartbeat_count"`
	TimeoutCount   uint64 `json:"timeout_count"`
	RecoveryCount  uint64 `json:"recovery_count"`
}

// GlobalSnapshot carries the aggregate counters.
type GlobalSnapshot struct {
	Enabled         bool   `json:"enabled"`
	Capacity        int    `json:"capacity"`
	SlotsUsed       int    `json:"slots_used"`
	ChecksPerformed uint64 `json:"checks_performed"`
	TotalHeartbeats uint64 `json:"total_heartbeats"`
	TotalTimeouts   uint64 `json:"total_timeouts"`
	TotalRecoveries uint64 `json:"total_recoveries"`
}

// Snapshot is a consistent point-in-time copy of the registry,
// suitable for reporting. It contains no live references.
type Snapshot struct {
	Entries []EntrySnapshot `json:"entries"`
	Global  GlobalSnapshot  `json:"global"`
}

// Snapshot copies the current registry state under the lock.
// Inactive (unregistered) slots are omitted from Entries but still
// counted in Global.SlotsUsed. Never fails.
//
// A snapshot taken while a recovery callback is in flight can observe
// the transient Unresponsive state, or a Healthy state that the
// checker will overwrite with Recovered once the callback returns.
func (w *Watchdog) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock()

	snap := Snapshot{
		Entries: make([]EntrySnapshot, 0, w.used),
		Global: GlobalSnapshot{
			Enabled:         w.enabled,
			Capacity:        len(w.entries),
			SlotsUsed:       w.used,
			ChecksPerformed: w.checksPerformed,
			TotalHeartbeats: w.totalHeartbeats,
			TotalTimeouts:   w.totalTimeouts,
			TotalRecoveries: w.totalRecoveries,
		},
	}

	for i := 0; i < w.used; i++ {
		e := &w.entries[i]
		if !e.active {
			continue
		}
		snap.Entries = append(snap.Entries, EntrySnapshot{
			Slot:           i,
			Name:           e.name,
			State:          e.state,
			TimeoutMS:      e.timeout.Milliseconds(),
			ElapsedMS:      now - e.lastHeartbeat,
			HeartbeatCount: e.heartbeatCount,
			TimeoutCount:   e.timeoutCount,
			RecoveryCount:  e.recoveryCount,
		})
	}

	return snap
}
