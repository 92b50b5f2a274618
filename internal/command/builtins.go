// internal/command/builtins.go
package command

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// BuiltinDeps carries the ambient values the builtin commands report.
type BuiltinDeps struct {
	// Version is printed by the version command.
	Version string

	// Uptime returns the daemon uptime. Nil disables the uptime command.
	Uptime func() time.Duration
}

// RegisterBuiltins installs the standard commands:
// help, status, history, echo, uptime and version.
func (e *Engine) RegisterBuiltins(deps BuiltinDeps) error {
	specs := []Spec{
		{
			Name: "help", Help: "Show available commands", Usage: "help",
			Run: func(w io.Writer, _ []Arg) error {
				return e.printHelp(w)
			},
		},
		{
			Name: "status", Help: "Command engine statistics", Usage: "status",
			Run: func(w io.Writer, _ []Arg) error {
				s := e.Stats()
				fmt.Fprintf(w, "Registered: %d/%d\n", s.Registered, MaxCommands)
				fmt.Fprintf(w, "Executed  : %d (ok: %d, fail: %d, unknown: %d)\n",
					s.Total, s.Successful, s.Failed, s.Unknown)
				fmt.Fprintf(w, "Arg errors: %d\n", s.ArgErrors)
				return nil
			},
		},
		{
			Name: "history", Help: "Show command history", Usage: "history",
			Run: func(w io.Writer, _ []Arg) error {
				lines := e.History()
				fmt.Fprintf(w, "Command history (%d entries):\n", len(lines))
				for i, line := range lines {
					fmt.Fprintf(w, "  [%d] %s\n", i+1, line)
				}
				return nil
			},
		},
		{
			Name: "echo", Help: "Echo arguments back", Usage: "echo <args...>",
			MaxArgs: MaxArgs,
			Run: func(w io.Writer, args []Arg) error {
				for i, a := range args {
					if i > 0 {
						fmt.Fprint(w, " ")
					}
					fmt.Fprint(w, a.String())
				}
				fmt.Fprintln(w)
				return nil
			},
		},
		{
			Name: "version", Help: "Show daemon version", Usage: "version",
			Run: func(w io.Writer, _ []Arg) error {
				fmt.Fprintf(w, "watchguard %s\n", deps.Version)
				return nil
			},
		},
	}

	if deps.Uptime != nil {
		specs = append(specs, Spec{
			Name: "uptime", Help: "Show daemon uptime", Usage: "uptime",
			Run: func(w io.Writer, _ []Arg) error {
				up := deps.Uptime()
				ms := up.Milliseconds()
				fmt.Fprintf(w, "Uptime: %02d:%02d:%02d.%03d\n",
					ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
				return nil
			},
		})
	}

	for _, spec := range specs {
		if err := e.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) printHelp(w io.Writer) error {
	e.mu.Lock()
	visible := make([]Spec, 0, len(e.cmds))
	for _, c := range e.cmds {
		if !c.Hidden {
			visible = append(visible, c)
		}
	}
	e.mu.Unlock()

	sort.Slice(visible, func(i, j int) bool { return visible[i].Name < visible[j].Name })

	fmt.Fprintln(w, "Available commands:")
	for _, c := range visible {
		fmt.Fprintf(w, "  %-16s %s\n", c.Name, c.Help)
	}
	fmt.Fprintln(w, "Type '<command> --help' for usage details.")
	return nil
}
