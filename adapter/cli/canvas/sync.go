package canvas

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
)

var syncChannel string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize a scope's canvas",
	Long: `Render the scope's todo set and push it to the remote canvas. When
the rendered content has not changed since the last sync, no remote call
is made.

Examples:
  tasklens canvas sync
  tasklens canvas sync --channel C0123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Synchronizer == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := app.ResolveScope(syncChannel)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		todos, err := app.TodoRepo.FindByScope(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to load todos: %w", err)
		}

		doc := app.Renderer.Render(scope, todos, time.Now().UTC())
		result, err := app.Synchronizer.Synchronize(ctx, scope, doc)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Printf("Canvas %s for %s\n", result.Op, scope.Key())
		fmt.Printf("  canvas: %s\n", result.CanvasID)
		fmt.Printf("  todos:  %d pending, %d completed\n", doc.Summary.Pending, doc.Summary.Completed)

		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncChannel, "channel", "", "target channel scope (default: personal scope)")
}
