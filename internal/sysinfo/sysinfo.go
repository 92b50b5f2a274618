// internal/sysinfo/sysinfo.go

// Package sysinfo gathers system-level diagnostics for the status
// surfaces: daemon uptime, Go runtime memory and goroutine figures,
// and host CPU/memory utilization.
package sysinfo

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultRefreshInterval is the cadence of the Run loop.
const DefaultRefreshInterval = 2 * time.Second

// Snapshot is one point-in-time metrics reading.
type Snapshot struct {
	UptimeMS     int64  `json:"uptime_ms"`
	Version      string `json:"version"`
	GoVersion    string `json:"go_version"`
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	HeapSys      uint64 `json:"heap_sys_bytes"`
	HeapObjects  uint64 `json:"heap_objects"`
	GCCycles     uint32 `json:"gc_cycles"`
	CPULoadPct   float64 `json:"cpu_load_pct"`
	HostMemTotal uint64  `json:"host_mem_total_bytes"`
	HostMemUsedPct float64 `json:"host_mem_used_pct"`
	RefreshCount uint64 `json:"refresh_count"`
}

// Config configures a Collector.
type Config struct {
	// Version is reported verbatim in every snapshot.
	Version string

	// RefreshInterval is the Run cadence. Zero means the default.
	RefreshInterval time.Duration

	// Clock returns daemon uptime in milliseconds. Nil anchors one here.
	Clock func() int64
}

// Collector refreshes and serves metrics snapshots.
// Host probes are best effort: a failing probe logs once per refresh
// and leaves the affected fields at their previous values.
type Collector struct {
	log      *slog.Logger
	clock    func() int64
	interval time.Duration
	version  string

	mu   sync.Mutex
	snap Snapshot
}

// New builds a Collector. The first snapshot is taken lazily by
// Refresh or Run.
func New(cfg Config, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Clock == nil {
		start := time.Now()
		cfg.Clock = func() int64 { return time.Since(start).Milliseconds() }
	}

	return &Collector{
		log:      log,
		clock:    cfg.Clock,
		interval: cfg.RefreshInterval,
		version:  cfg.Version,
	}
}

// Refresh gathers a fresh snapshot.
func (c *Collector) Refresh() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.UptimeMS = c.clock()
	c.snap.Version = c.version
	c.snap.GoVersion = runtime.Version()
	c.snap.Goroutines = runtime.NumGoroutine()
	c.snap.HeapAlloc = ms.HeapAlloc
	c.snap.HeapSys = ms.HeapSys
	c.snap.HeapObjects = ms.HeapObjects
	c.snap.GCCycles = ms.NumGC
	c.snap.RefreshCount++

	// Interval 0 compares against the previous call, so the first
	// reading reports zero.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		c.snap.CPULoadPct = pct[0]
	} else if err != nil {
		c.log.Warn("cpu probe failed", "err", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		c.snap.HostMemTotal = vm.Total
		c.snap.HostMemUsedPct = vm.UsedPercent
	} else {
		c.log.Warn("memory probe failed", "err", err)
	}
}

// Snapshot returns a copy of the latest reading.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Run refreshes on the configured interval until ctx is done.
// beat, if non-nil, is called after every successful refresh; the
// daemon uses it to heartbeat the collector's own watchdog slot.
func (c *Collector) Run(ctx context.Context, beat func()) {
	c.log.Info("sysinfo collector started", "interval", c.interval)

	c.Refresh()
	if beat != nil {
		beat()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh()
			if beat != nil {
				beat()
			}
		}
	}
}
