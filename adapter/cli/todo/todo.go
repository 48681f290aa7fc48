package todo

import (
	"github.com/spf13/cobra"
)

// Cmd is the todo command group
var Cmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage todos",
	Long:  `Add, list, complete, prioritize, and delete todos in a scope.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(priorityCmd)
	Cmd.AddCommand(deleteCmd)
}
