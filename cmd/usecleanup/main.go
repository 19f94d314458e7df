package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "usecleanup",
		Short: "Demo host for the usecleanup callback library",
		Long: `usecleanup serves a small live demo of cleanup callbacks.

Each WebSocket client gets its own component scope. Messages from the
client re-render a timer component built on NewCleanupCallback: every
render cancels the previously scheduled tick through the cleanup slot
and arms a new one. Disconnecting disposes the scope and fires the
last pending cleanup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
