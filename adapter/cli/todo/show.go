package todo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tasklens/tasklens/adapter/cli"
	"github.com/tasklens/tasklens/internal/todos/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a todo's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetTodoHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid todo id: %w", err)
		}

		t, err := app.GetTodoHandler.Handle(cmd.Context(), queries.GetTodoQuery{ID: id})
		if err != nil {
			return fmt.Errorf("failed to load todo: %w", err)
		}

		fmt.Printf("Todo %s\n", t.ID())
		fmt.Printf("  scope:      %s\n", t.Scope().Key())
		fmt.Printf("  title:      %s\n", t.Title())
		fmt.Printf("  type:       %s\n", t.TaskType())
		tier := t.Tier().String()
		if t.TierPinned() {
			tier += " (pinned)"
		}
		fmt.Printf("  tier:       %s\n", tier)
		fmt.Printf("  status:     %s\n", t.Status())
		fmt.Printf("  confidence: %.2f\n", t.Confidence())
		if t.DueAt() != nil {
			fmt.Printf("  due:        %s\n", t.DueAt().Format("2006-01-02 15:04"))
		}
		if t.AssigneeName() != "" {
			fmt.Printf("  assignee:   %s\n", t.AssigneeName())
		}
		if t.CompletedAt() != nil {
			fmt.Printf("  completed:  %s\n", t.CompletedAt().Format("2006-01-02 15:04"))
		}
		fmt.Printf("  sources:    %d message(s)\n", len(t.SourceRefs()))
		fmt.Printf("  created:    %s\n", t.CreatedAt().Format(time.RFC3339))

		return nil
	},
}

func init() {
	Cmd.AddCommand(showCmd)
}
