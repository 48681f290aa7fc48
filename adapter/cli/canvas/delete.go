package canvas

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/canvas/domain"
)

var deleteChannel string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a scope's canvas",
	Long: `Delete the remote canvas and forget its recorded state. The todos
themselves are kept; the next sync creates a fresh canvas.

Examples:
  tasklens canvas delete --channel C0123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Synchronizer == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := app.ResolveScope(deleteChannel)
		if err != nil {
			return err
		}

		if err := app.Synchronizer.Delete(cmd.Context(), scope); err != nil {
			if errors.Is(err, domain.ErrCanvasNotFound) {
				fmt.Printf("No canvas for %s\n", scope.Key())
				return nil
			}
			return fmt.Errorf("failed to delete canvas: %w", err)
		}

		fmt.Printf("Canvas deleted for %s\n", scope.Key())
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteChannel, "channel", "", "target channel scope (default: personal scope)")
}
