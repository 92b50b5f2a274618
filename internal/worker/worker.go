// internal/worker/worker.go
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tamzrod/watchguard/internal/watchdog"
)

// ---------------------------------------------------------------
// WORKER
// ---------------------------------------------------------------
//
// A worker wraps a registered activity in a heartbeat loop. It
// beats its watchdog slot on a fixed cadence and optionally runs a
// work function between beats. Stalling a worker keeps the loop
// alive but suppresses heartbeats, which drives the slot through
// the Warning/Unresponsive/Recovered cycle.

// WorkFunc is invoked once per beat interval while the worker is
// not stalled. It should return quickly; a slow WorkFunc delays
// the next heartbeat.
type WorkFunc func(ctx context.Context)

// Worker heartbeats a single watchdog slot on a fixed cadence.
type Worker struct {
	log      *slog.Logger
	wd       *watchdog.Watchdog
	slot     watchdog.Slot
	name     string
	interval time.Duration
	work     WorkFunc

	stalled atomic.Bool
	beats   atomic.Uint64
}

// New returns a worker bound to an already-registered slot.
// work may be nil for a pure heartbeat loop.
func New(log *slog.Logger, wd *watchdog.Watchdog, slot watchdog.Slot, name string, interval time.Duration, work WorkFunc) *Worker {
	return &Worker{
		log:      log.With("module", "worker", "activity", name),
		wd:       wd,
		slot:     slot,
		name:     name,
		interval: interval,
		work:     work,
	}
}

// Name returns the activity name the worker beats for.
func (w *Worker) Name() string { return w.name }

// Slot returns the watchdog slot the worker beats.
func (w *Worker) Slot() watchdog.Slot { return w.slot }

// Beats returns the number of heartbeats delivered so far.
func (w *Worker) Beats() uint64 { return w.beats.Load() }

// SetStalled toggles heartbeat suppression. A stalled worker keeps
// running its loop but stops beating, so the watchdog sees it as
// unresponsive after its timeout elapses.
func (w *Worker) SetStalled(stalled bool) {
	was := w.stalled.Swap(stalled)
	if was == stalled {
		return
	}
	if stalled {
		w.log.Warn("worker stalled, heartbeats suppressed")
	} else {
		w.log.Info("worker resumed")
	}
}

// Stalled reports whether heartbeats are currently suppressed.
func (w *Worker) Stalled() bool { return w.stalled.Load() }

// Run beats the slot until ctx is done. One goroutine per worker.
// The first beat is delivered immediately so a freshly started
// worker never begins its life in Warning.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started", "interval", w.interval)

	w.beat(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped", "beats", w.beats.Load())
			return
		case <-ticker.C:
			w.beat(ctx)
		}
	}
}

func (w *Worker) beat(ctx context.Context) {
	if w.stalled.Load() {
		return
	}
	if w.work != nil {
		w.work(ctx)
	}
	w.wd.Heartbeat(w.slot)
	w.beats.Add(1)
}
