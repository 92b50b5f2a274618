// cmd/watchguard/commands.go
package main

import (
	"fmt"
	"io"

	"github.com/tamzrod/watchguard/internal/command"
	"github.com/tamzrod/watchguard/internal/ringlog"
	"github.com/tamzrod/watchguard/internal/sysinfo"
	"github.com/tamzrod/watchguard/internal/watchdog"
	"github.com/tamzrod/watchguard/internal/worker"
)

// registerDaemonCommands wires the console to the live daemon state.
func registerDaemonCommands(
	eng *command.Engine,
	wd *watchdog.Watchdog,
	logs *ringlog.Buffer,
	sys *sysinfo.Collector,
	workers map[string]*worker.Worker,
) error {
	specs := []command.Spec{
		{
			Name: "wdg", Help: "Watchdog control", Usage: "wdg <status|enable|disable>",
			MinArgs: 1, MaxArgs: 1,
			Run: func(w io.Writer, args []command.Arg) error {
				switch args[0].String() {
				case "status":
					printWatchdogStatus(w, wd)
					return nil
				case "enable":
					wd.SetEnabled(true)
					fmt.Fprintln(w, "watchdog enabled")
					return nil
				case "disable":
					wd.SetEnabled(false)
					fmt.Fprintln(w, "watchdog disabled")
					return nil
				default:
					return fmt.Errorf("unknown action %q", args[0].String())
				}
			},
		},
		{
			Name: "log", Help: "Inspect the log buffer", Usage: "log <dump [n]|search <keyword>|clear>",
			MinArgs: 1, MaxArgs: 2,
			Run: func(w io.Writer, args []command.Arg) error {
				switch args[0].String() {
				case "dump":
					n := -1
					if len(args) > 1 {
						n = int(args[1].Int)
					}
					printLogEntries(w, logs.Last(n))
					return nil
				case "search":
					if len(args) < 2 {
						return fmt.Errorf("search needs a keyword")
					}
					printLogEntries(w, logs.Search(args[1].String(), logs.Len()))
					return nil
				case "clear":
					logs.Clear()
					fmt.Fprintln(w, "log buffer cleared")
					return nil
				default:
					return fmt.Errorf("unknown action %q", args[0].String())
				}
			},
		},
		{
			Name: "sysinfo", Help: "Show runtime metrics", Usage: "sysinfo",
			Run: func(w io.Writer, _ []command.Arg) error {
				s := sys.Snapshot()
				fmt.Fprintf(w, "uptime_ms=%d version=%s go=%s\n", s.UptimeMS, s.Version, s.GoVersion)
				fmt.Fprintf(w, "goroutines=%d heap_alloc=%d heap_objects=%d gc_cycles=%d\n",
					s.Goroutines, s.HeapAlloc, s.HeapObjects, s.GCCycles)
				fmt.Fprintf(w, "cpu_load=%.1f%% host_mem_used=%.1f%%\n", s.CPULoadPct, s.HostMemUsedPct)
				return nil
			},
		},
		{
			Name: "stall", Help: "Suppress heartbeats for an activity", Usage: "stall <activity>",
			MinArgs: 1, MaxArgs: 1, Hidden: true,
			Run: func(w io.Writer, args []command.Arg) error {
				return setStalled(w, workers, args[0].String(), true)
			},
		},
		{
			Name: "resume", Help: "Resume heartbeats for an activity", Usage: "resume <activity>",
			MinArgs: 1, MaxArgs: 1, Hidden: true,
			Run: func(w io.Writer, args []command.Arg) error {
				return setStalled(w, workers, args[0].String(), false)
			},
		},
	}

	for _, spec := range specs {
		if err := eng.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

func printWatchdogStatus(w io.Writer, wd *watchdog.Watchdog) {
	snap := wd.Snapshot()
	g := snap.Global

	fmt.Fprintf(w, "enabled=%t slots=%d/%d checks=%d heartbeats=%d timeouts=%d recoveries=%d\n",
		g.Enabled, g.SlotsUsed, g.Capacity,
		g.ChecksPerformed, g.TotalHeartbeats, g.TotalTimeouts, g.TotalRecoveries)

	for _, e := range snap.Entries {
		fmt.Fprintf(w, "  [%d] %-23s %-12s elapsed=%dms/%dms beats=%d timeouts=%d\n",
			e.Slot, e.Name, e.State, e.ElapsedMS, e.TimeoutMS, e.HeartbeatCount, e.TimeoutCount)
	}
}

func printLogEntries(w io.Writer, entries []ringlog.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%8d %-5s %-8s %s\n", e.TimestampMS, e.Level, e.Module, e.Message)
	}
}

func setStalled(w io.Writer, workers map[string]*worker.Worker, name string, stalled bool) error {
	wk, ok := workers[name]
	if !ok {
		return fmt.Errorf("no worker for activity %q", name)
	}
	wk.SetStalled(stalled)
	fmt.Fprintf(w, "%s stalled=%t\n", name, stalled)
	return nil
}
