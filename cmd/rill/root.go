package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rill",
	Short: "rill is a graph-based workflow execution engine",
	Long: `rill executes directed graphs of tool-backed nodes over a shared
mutable state, with conditional branching, state-driven loops and live
step streaming.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
