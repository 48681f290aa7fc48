package todo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
)

var completeCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark a todo as completed",
	Long: `Mark a todo as completed. Completed todos move to the canvas's
recently-completed section and keep their identity.

Examples:
  tasklens todo complete 4f7c9d2e-1a3b-4c5d-8e9f-0a1b2c3d4e5f`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CompleteTodoHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid todo id: %w", err)
		}

		if err := app.CompleteTodoHandler.Handle(cmd.Context(), commands.CompleteTodoCommand{ID: id}); err != nil {
			return fmt.Errorf("failed to complete todo: %w", err)
		}

		fmt.Printf("Todo completed: %s\n", id)
		return nil
	},
}
