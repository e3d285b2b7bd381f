package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tendertracker/internal/app"
	"tendertracker/internal/config"
	"tendertracker/internal/logging"
	"tendertracker/internal/usecase"
)

// exitCode communicates the run outcome: 0 full success, 2 partial success
// (some source failed but data was persisted), 1 total failure.
var exitCode int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full ingestion now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger, closeLog := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
		defer func() { _ = closeLog() }()

		application, err := app.New(cfg, logger)
		if err != nil {
			exitCode = 1
			return fmt.Errorf("wire application: %w", err)
		}
		defer func() { _ = application.Close() }()

		summary, err := application.Run(cmd.Context())
		if summary != nil {
			printSummary(summary)
		}
		if err != nil {
			exitCode = 1
			logger.Error("run failed", "error", err)
			return err
		}

		if summary.Partial() {
			exitCode = 2
		}
		return nil
	},
}

func printSummary(summary *usecase.Summary) {
	fmt.Printf("run %s: %s\n", summary.RunID, summary.State)
	for source, stats := range summary.PerSource {
		status := "ok"
		if stats.Failed {
			status = "FAILED"
		}
		fmt.Printf("  %-20s %s fetched=%d skipped=%d dropped=%d duplicates=%d discarded=%d persisted=%d\n",
			source, status, stats.Fetched, stats.Skipped, stats.Dropped, stats.Duplicates, stats.Discarded, stats.Persisted)
	}
	fmt.Printf("  persisted total: %d\n", summary.Persisted)

	if len(summary.Issues) > 0 {
		fmt.Fprintf(os.Stdout, "  issues for review (%d):\n", len(summary.Issues))
		for _, issue := range summary.Issues {
			fmt.Printf("    [%s] %s/%s: %s\n", issue.Kind, issue.Source, issue.TenderID, issue.Message)
		}
	}
}
