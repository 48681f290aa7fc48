package todo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a todo",
	Long: `Delete a todo from its scope. The next canvas sync drops it from
the rendered document.

Examples:
  tasklens todo delete 4f7c9d2e-1a3b-4c5d-8e9f-0a1b2c3d4e5f`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteTodoHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid todo id: %w", err)
		}

		if err := app.DeleteTodoHandler.Handle(cmd.Context(), commands.DeleteTodoCommand{ID: id}); err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}

		fmt.Printf("Todo deleted: %s\n", id)
		return nil
	},
}
