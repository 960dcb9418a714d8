// Package cli implements the prodsched command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prodsched",
	Short: "Shop-floor production scheduler",
	Long: `prodsched plans machining tasks against a shift calendar, splits large
orders into lots, detects machine conflicts and tracks execution.

Run "prodsched serve" to start the HTTP API, or use the subcommands to
plan and inspect work orders directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main with the build version.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
