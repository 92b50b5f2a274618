// cmd/watchguard/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "1.4.0"

func main() {
	if err := mainE(); err != nil {
		fmt.Fprintln(os.Stderr, "watchguard:", err)
		os.Exit(1)
	}
}

func mainE() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return NewRootCmd().ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use: "watchguard SUBCOMMAND",

		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},

		Long: `watchguard is a cooperative software watchdog daemon.

Activities declared in the config file are monitored for heartbeats;
an activity that stops beating is flagged, logged and run through its
recovery hook. State is served over HTTP and can optionally be
mirrored into a Modbus register map for PLCs.

Run it with:
  $ watchguard run path/to/config.yaml
`,
	}

	root.AddCommand(
		NewRunCmd(),
		NewVersionCmd(),
	)
	return root
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the daemon version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
