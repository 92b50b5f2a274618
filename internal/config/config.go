// internal/config/config.go
package config

type Config struct {
	Watchguard WatchguardConfig `yaml:"watchguard"`
}

type WatchguardConfig struct {
	Capacity        int   `yaml:"capacity"`
	CheckIntervalMs int   `yaml:"check_interval_ms"`
	Enabled         *bool `yaml:"enabled"`

	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Sysinfo    SysinfoConfig    `yaml:"sysinfo"`
	Export     *ExportConfig    `yaml:"export"`
	Activities []ActivityConfig `yaml:"activities"`
}

// ---- LOGGING ----

type LogConfig struct {
	BufferEntries int    `yaml:"buffer_entries"`
	MinLevel      string `yaml:"min_level"`
}

// ---- HTTP / TELEMETRY ----

type HTTPConfig struct {
	Listen              string `yaml:"listen"`
	TelemetryIntervalMs int    `yaml:"telemetry_interval_ms"`
}

// ---- SYSINFO ----

type SysinfoConfig struct {
	RefreshIntervalMs int `yaml:"refresh_interval_ms"`
	TimeoutMs         int `yaml:"timeout_ms"`
}

// ---- MODBUS STATUS EXPORT (optional, opt-in) ----

type ExportConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     int    `yaml:"unit_id"`
	BaseSlot   int    `yaml:"base_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	IntervalMs int    `yaml:"interval_ms"`
}

// ---- MONITORED ACTIVITY ----

type ActivityConfig struct {
	Name      string `yaml:"name"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// BeatIntervalMs > 0 runs a built-in worker that heartbeats on
	// this cadence. Zero means the activity is driven externally
	// through the command or HTTP surfaces.
	BeatIntervalMs int `yaml:"beat_interval_ms"`
}
