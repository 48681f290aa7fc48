package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/internal/scan"
)

var scanChannel string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan conversations and extract tasks",
	Long: `Scan workspace conversations, classify messages into task candidates,
and merge them into the scope's todo set.

Without flags the scan covers every conversation the configured member can
see and merges into their personal scope. With --channel it scans that one
channel into the channel's shared scope.

Examples:
  tasklens scan
  tasklens scan --channel C0123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Scanner == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()

		var report *scan.Report
		var err error
		if scanChannel != "" {
			report, err = app.Scanner.ScanChannel(ctx, scanChannel)
		} else {
			if app.CurrentUserID == "" {
				return fmt.Errorf("no channel given and TASKLENS_USER_ID is not set")
			}
			report, err = app.Scanner.ScanPersonal(ctx, app.CurrentUserID)
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		fmt.Printf("Scan complete for %s\n", report.Scope.Key())
		fmt.Printf("  sources:    %d scanned, %d skipped\n", report.SourcesScanned, len(report.Skipped))
		fmt.Printf("  messages:   %d fetched, %d prefiltered\n", report.MessagesFetched, report.Prefiltered)
		fmt.Printf("  candidates: %d (%d malformed records dropped)\n", report.CandidatesFound, report.Malformed)
		fmt.Printf("  todos:      %d created, %d updated, %d unchanged\n",
			report.Summary.Created, report.Summary.Updated, report.Summary.Unchanged)
		for _, skipped := range report.Skipped {
			fmt.Printf("  skipped %s: %s\n", skipped.SourceID, skipped.Reason)
		}

		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanChannel, "channel", "", "scan a single channel into its shared scope")
	rootCmd.AddCommand(scanCmd)
}
