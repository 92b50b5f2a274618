// internal/config/validate.go
package config

import (
	"fmt"
)

// maxNameLen mirrors the registry's stored-name bound.
const maxNameLen = 23

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	w := cfg.Watchguard

	if w.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d", w.Capacity)
	}
	if w.CheckIntervalMs < 0 {
		return fmt.Errorf("check_interval_ms must not be negative, got %d", w.CheckIntervalMs)
	}

	// ------------------------------------------------------------
	// ACTIVITY VALIDATION
	// ------------------------------------------------------------

	capacity := w.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if len(w.Activities) > capacity {
		return fmt.Errorf(
			"%d activities configured but capacity is %d",
			len(w.Activities), capacity,
		)
	}

	seen := make(map[string]struct{})

	for _, a := range w.Activities {
		if a.Name == "" {
			return fmt.Errorf("activity with empty name")
		}

		// name sanity (ASCII only); truncation happens in Normalize
		for i := 0; i < len(a.Name); i++ {
			if a.Name[i] < 0x20 || a.Name[i] > 0x7E {
				return fmt.Errorf(
					"activity %q: name must contain printable ASCII characters only",
					a.Name,
				)
			}
		}

		if a.TimeoutMs <= 0 {
			return fmt.Errorf(
				"activity %q: timeout_ms must be positive, got %d",
				a.Name, a.TimeoutMs,
			)
		}
		if a.BeatIntervalMs < 0 {
			return fmt.Errorf(
				"activity %q: beat_interval_ms must not be negative",
				a.Name,
			)
		}
		if a.BeatIntervalMs > 0 && a.BeatIntervalMs >= a.TimeoutMs {
			return fmt.Errorf(
				"activity %q: beat_interval_ms (%d) must be below timeout_ms (%d)",
				a.Name, a.BeatIntervalMs, a.TimeoutMs,
			)
		}

		// Slot names are unique by convention; configuration is where
		// the convention is enforced.
		key := a.Name
		if len(key) > maxNameLen {
			key = key[:maxNameLen]
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate activity name %q", key)
		}
		seen[key] = struct{}{}
	}

	// ------------------------------------------------------------
	// EXPORT VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	if e := w.Export; e != nil {
		if e.Endpoint == "" {
			return fmt.Errorf("export: endpoint required")
		}
		if e.UnitID < 0 || e.UnitID > 255 {
			return fmt.Errorf("export: unit_id %d out of range 0-255", e.UnitID)
		}
		if e.BaseSlot < 0 {
			return fmt.Errorf("export: base_slot must not be negative")
		}
		if e.TimeoutMs < 0 || e.IntervalMs < 0 {
			return fmt.Errorf("export: timeout_ms and interval_ms must not be negative")
		}
	}

	return nil
}
