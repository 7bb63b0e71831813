package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy runs hierarchical state machines described in YAML",
	Long: `Canopy loads a hierarchical state machine definition and drives it from
the terminal, a Redis list, HTTP or an MCP client. Definitions may only call
the built-in actions (log, emit, start_timer, stop_timer, set, unset, is).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
