package canvas

import (
	"github.com/spf13/cobra"
)

// Cmd is the canvas command group
var Cmd = &cobra.Command{
	Use:   "canvas",
	Short: "Manage scope canvases",
	Long:  `Synchronize, inspect, and delete the rendered canvas of a scope.`,
}

func init() {
	Cmd.AddCommand(syncCmd)
	Cmd.AddCommand(infoCmd)
	Cmd.AddCommand(deleteCmd)
}
