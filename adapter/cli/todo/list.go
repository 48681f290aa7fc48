package todo

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/queries"
	tododomain "github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

var (
	listChannel  string
	listStatus   string
	listTier     string
	listAssignee string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Long: `List a scope's todos, highest tier first.

Filter Options:
  --status    Filter by status (pending, in_progress, completed)
  --tier      Filter by tier (low, medium, high, critical)
  --assignee  Filter by assignee member ID

Examples:
  tasklens todo list
  tasklens todo list --channel C0123456789
  tasklens todo list --tier critical
  tasklens todo list --status completed`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListTodosHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		scope, err := app.ResolveScope(listChannel)
		if err != nil {
			return err
		}

		query := queries.ListTodosQuery{
			Scope:      scope,
			AssigneeID: listAssignee,
		}
		if listStatus != "" {
			parsed, err := tododomain.ParseStatus(listStatus)
			if err != nil {
				return fmt.Errorf("invalid status %q (use pending, in_progress, completed)", listStatus)
			}
			query.Status = &parsed
		}
		if listTier != "" {
			parsed, err := value_objects.ParseTier(listTier)
			if err != nil {
				return fmt.Errorf("invalid tier %q (use low, medium, high, critical)", listTier)
			}
			query.Tier = &parsed
		}

		todos, err := app.ListTodosHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list todos: %w", err)
		}

		if len(todos) == 0 {
			fmt.Printf("No todos in %s\n", scope.Key())
			return nil
		}

		now := time.Now().UTC()
		fmt.Printf("Todos in %s:\n", scope.Key())
		for _, t := range todos {
			marker := " "
			if t.IsCompleted() {
				marker = "x"
			}
			line := fmt.Sprintf("  [%s] %-8s %s  %s", marker, t.Tier(), t.ID(), t.Title())
			if t.DueAt() != nil {
				line += fmt.Sprintf("  (due %s", t.DueAt().Format("2006-01-02 15:04"))
				if t.IsOverdue(now) {
					line += ", overdue"
				}
				line += ")"
			}
			if t.AssigneeName() != "" {
				line += "  @" + t.AssigneeName()
			}
			fmt.Println(line)
		}

		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listChannel, "channel", "", "target channel scope (default: personal scope)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listTier, "tier", "", "filter by tier")
	listCmd.Flags().StringVar(&listAssignee, "assignee", "", "filter by assignee member ID")
}
