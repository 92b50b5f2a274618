// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultCapacity            = 8
	DefaultCheckIntervalMs     = 1000
	DefaultLogBufferEntries    = 64
	DefaultLogMinLevel         = "debug"
	DefaultHTTPListen          = ":8650"
	DefaultTelemetryIntervalMs = 500
	DefaultSysinfoRefreshMs    = 2000
	DefaultSysinfoTimeoutMs    = 10000
	DefaultExportTimeoutMs     = 1000
	DefaultExportIntervalMs    = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	w := &cfg.Watchguard

	if w.Capacity == 0 {
		w.Capacity = DefaultCapacity
	}
	if w.CheckIntervalMs == 0 {
		w.CheckIntervalMs = DefaultCheckIntervalMs
	}
	if w.Enabled == nil {
		enabled := true
		w.Enabled = &enabled
	}

	if w.Log.BufferEntries == 0 {
		w.Log.BufferEntries = DefaultLogBufferEntries
	}
	if w.Log.MinLevel == "" {
		w.Log.MinLevel = DefaultLogMinLevel
	}

	if w.HTTP.Listen == "" {
		w.HTTP.Listen = DefaultHTTPListen
	}
	if w.HTTP.TelemetryIntervalMs == 0 {
		w.HTTP.TelemetryIntervalMs = DefaultTelemetryIntervalMs
	}

	if w.Sysinfo.RefreshIntervalMs == 0 {
		w.Sysinfo.RefreshIntervalMs = DefaultSysinfoRefreshMs
	}
	if w.Sysinfo.TimeoutMs == 0 {
		w.Sysinfo.TimeoutMs = DefaultSysinfoTimeoutMs
	}

	if e := w.Export; e != nil {
		if e.TimeoutMs == 0 {
			e.TimeoutMs = DefaultExportTimeoutMs
		}
		if e.IntervalMs == 0 {
			e.IntervalMs = DefaultExportIntervalMs
		}
	}

	// Names are bounded in the registry; truncate here so config,
	// snapshots and export all agree on the stored name.
	for i := range w.Activities {
		a := &w.Activities[i]
		if len(a.Name) > maxNameLen {
			a.Name = a.Name[:maxNameLen]
		}
	}
}
