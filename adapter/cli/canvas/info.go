package canvas

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/canvas/domain"
)

var infoChannel string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a scope's canvas state",
	Long: `Show the canvas ID, content hash, and last sync time recorded for
a scope.

Examples:
  tasklens canvas info
  tasklens canvas info --channel C0123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Synchronizer == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := app.ResolveScope(infoChannel)
		if err != nil {
			return err
		}

		state, err := app.Synchronizer.Info(cmd.Context(), scope)
		if err != nil {
			if errors.Is(err, domain.ErrCanvasNotFound) {
				fmt.Printf("No canvas for %s\n", scope.Key())
				return nil
			}
			return fmt.Errorf("failed to load canvas state: %w", err)
		}

		fmt.Printf("Canvas for %s\n", scope.Key())
		fmt.Printf("  canvas: %s\n", state.CanvasID)
		fmt.Printf("  hash:   %s\n", state.ContentHash)
		fmt.Printf("  synced: %s\n", state.LastSyncedAt.Format("2006-01-02 15:04:05 MST"))

		return nil
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoChannel, "channel", "", "target channel scope (default: personal scope)")
}
