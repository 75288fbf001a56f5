// Package cmd implements the CLI commands for AdPipe using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adpipe",
	Short: "AdPipe — convert HTML5 creative bundles into ad-serving API payloads",
	Long: `AdPipe ingests a zipped HTML5 creative (authored with Edge, Hype, or any
generic tool), rewrites every asset reference into a macro placeholder, and
assembles the self-contained payload the ad-serving creative API accepts.

Usage:
  adpipe convert <bundle.zip> [flags]
  adpipe inspect <bundle.zip>`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
