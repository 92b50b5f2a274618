// cmd/watchguard/run.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/watchguard/internal/command"
	"github.com/tamzrod/watchguard/internal/config"
	"github.com/tamzrod/watchguard/internal/export"
	exportmodbus "github.com/tamzrod/watchguard/internal/export/modbus"
	"github.com/tamzrod/watchguard/internal/ringlog"
	"github.com/tamzrod/watchguard/internal/server"
	"github.com/tamzrod/watchguard/internal/sysinfo"
	"github.com/tamzrod/watchguard/internal/watchdog"
	"github.com/tamzrod/watchguard/internal/worker"
)

func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run the watchdog daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
	}
}

func run(ctx context.Context, cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	w := cfg.Watchguard

	// --------------------
	// Logging: terminal + in-memory ring, one clock for both
	// --------------------

	start := time.Now()
	uptimeMS := func() int64 { return time.Since(start).Milliseconds() }

	logs := ringlog.New(w.Log.BufferEntries, uptimeMS)
	logs.SetMinLevel(logLevel(w.Log.MinLevel))

	log := slog.New(ringlog.Fanout(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(w.Log.MinLevel)}),
		ringlog.NewHandler(logs),
	))
	log.Info("watchguard starting", "module", "main", "version", version, "config", cfgPath)

	// --------------------
	// Watchdog core
	// --------------------

	wd := watchdog.New(watchdog.Config{
		Capacity:      w.Capacity,
		CheckInterval: time.Duration(w.CheckIntervalMs) * time.Millisecond,
		Clock:         uptimeMS,
	}, log)
	if w.Enabled != nil {
		wd.SetEnabled(*w.Enabled)
	}

	var wg sync.WaitGroup
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		wd.Run(runCtx)
	}()

	// --------------------
	// Sysinfo collector, watched like any other activity
	// --------------------

	sys := sysinfo.New(sysinfo.Config{
		Version:         version,
		RefreshInterval: time.Duration(w.Sysinfo.RefreshIntervalMs) * time.Millisecond,
		Clock:           uptimeMS,
	}, log)

	sysSlot, err := wd.Register("sysinfo", time.Duration(w.Sysinfo.TimeoutMs)*time.Millisecond, nil)
	if err != nil {
		return fmt.Errorf("sysinfo registration failed: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sys.Run(runCtx, func() { wd.Heartbeat(sysSlot) })
	}()

	// --------------------
	// Configured activities
	// --------------------

	workers := make(map[string]*worker.Worker, len(w.Activities))
	for _, a := range w.Activities {
		slot, err := wd.Register(a.Name, time.Duration(a.TimeoutMs)*time.Millisecond, nil)
		if err != nil {
			return fmt.Errorf("activity %q registration failed: %w", a.Name, err)
		}
		if a.BeatIntervalMs <= 0 {
			// Externally driven activity: something else beats the slot.
			continue
		}

		wk := worker.New(log, wd, slot, a.Name, time.Duration(a.BeatIntervalMs)*time.Millisecond, nil)
		workers[a.Name] = wk

		wg.Add(1)
		go func() {
			defer wg.Done()
			wk.Run(runCtx)
		}()
	}

	// --------------------
	// Console command engine
	// --------------------

	eng := command.NewEngine()
	if err := eng.RegisterBuiltins(command.BuiltinDeps{
		Version: version,
		Uptime:  func() time.Duration { return time.Since(start) },
	}); err != nil {
		return fmt.Errorf("builtin command registration failed: %w", err)
	}
	if err := registerDaemonCommands(eng, wd, logs, sys, workers); err != nil {
		return fmt.Errorf("daemon command registration failed: %w", err)
	}

	// --------------------
	// Optional Modbus status export
	// --------------------

	if e := w.Export; e != nil {
		cli, err := exportmodbus.NewEndpointClient(exportmodbus.Config{
			Endpoint: e.Endpoint,
			Timeout:  time.Duration(e.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("export endpoint %s: %w", e.Endpoint, err)
		}
		defer cli.Close()

		ex := export.New(export.Config{
			UnitID:   uint8(e.UnitID),
			BaseSlot: e.BaseSlot,
		}, cli, wd, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			ex.Run(runCtx, time.Duration(e.IntervalMs)*time.Millisecond)
		}()
	}

	// --------------------
	// HTTP API + telemetry stream (foreground)
	// --------------------

	srvCfg := server.DefaultConfig()
	srvCfg.Listen = w.HTTP.Listen
	srvCfg.TelemetryInterval = time.Duration(w.HTTP.TelemetryIntervalMs) * time.Millisecond

	srv := server.New(srvCfg, server.Deps{
		Watchdog: wd,
		Logs:     logs,
		Sysinfo:  sys,
		Commands: eng,
	}, log)

	err = srv.Run(runCtx)

	cancel()
	wg.Wait()
	log.Info("watchguard stopped", "module", "main")
	return err
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
