// Package cli provides the tendertracker command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "tendertracker",
	Short:   "Tender portal ingestion pipeline",
	Long:    "Tendertracker scrapes government procurement portals, normalizes and\ncategorizes the listings, and appends new tenders to the tracking store.",
	Version: Version,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.AddCommand(runCmd)
}
