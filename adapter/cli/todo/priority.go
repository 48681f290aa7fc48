package todo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
)

var priorityCmd = &cobra.Command{
	Use:   "priority [id] [tier]",
	Short: "Pin a todo's priority tier",
	Long: `Pin a todo to a priority tier. A pinned tier is never changed by
later extractions.

Examples:
  tasklens todo priority 4f7c9d2e-1a3b-4c5d-8e9f-0a1b2c3d4e5f critical`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SetPriorityHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid todo id: %w", err)
		}

		if err := app.SetPriorityHandler.Handle(cmd.Context(), commands.SetPriorityCommand{
			ID:   id,
			Tier: args[1],
		}); err != nil {
			return fmt.Errorf("failed to set priority: %w", err)
		}

		fmt.Printf("Todo %s pinned to %s\n", id, args[1])
		return nil
	},
}
