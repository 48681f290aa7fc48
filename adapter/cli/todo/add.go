package todo

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
)

var (
	addChannel  string
	addType     string
	addPriority string
	addDue      string
	addAssignee string
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a todo manually",
	Long: `Add a todo to a scope without going through extraction.

Examples:
  tasklens todo add "Ship the release notes"
  tasklens todo add "Fix login crash" --channel C0123456789 -p high
  tasklens todo add "Prepare demo" --due 2026-09-01 --type meeting`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AddTodoHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := app.ResolveScope(addChannel)
		if err != nil {
			return err
		}

		addCommand := commands.AddTodoCommand{
			Scope:      scope,
			Title:      args[0],
			TaskType:   addType,
			Tier:       addPriority,
			AssigneeID: addAssignee,
		}

		if addDue != "" {
			parsed, err := time.Parse("2006-01-02", addDue)
			if err != nil {
				return fmt.Errorf("invalid due date format (use YYYY-MM-DD): %w", err)
			}
			addCommand.DueAt = &parsed
		}

		result, err := app.AddTodoHandler.Handle(cmd.Context(), addCommand)
		if err != nil {
			return fmt.Errorf("failed to add todo: %w", err)
		}

		fmt.Printf("Todo added: %s\n", result.ID)
		fmt.Printf("  scope: %s\n", scope.Key())
		fmt.Printf("  title: %s\n", args[0])
		if addPriority != "" {
			fmt.Printf("  priority: %s\n", addPriority)
		}

		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addChannel, "channel", "", "target channel scope (default: personal scope)")
	addCmd.Flags().StringVar(&addType, "type", "", "task type (bug, feature, meeting, review, deadline, urgent, general)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "pin priority tier (low, medium, high, critical)")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addAssignee, "assignee", "", "assignee member ID")
}
