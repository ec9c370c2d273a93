package commands

import (
	"github.com/spf13/cobra"

	"github.com/taskboard-dev/taskboard/internal/cli/guard"
)

// NewOpenCmd creates the open command, which runs the view for a location
// such as /tasks?status=Completed or /projects/<id>
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <location>",
		Short: "Open a view by its location",
		Example: `  taskboard open /
  taskboard open "/tasks?status=In Progress"
  taskboard open /projects/01J9Z6Q4N8X2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := guard.ParseLocation(args[0])
			if err != nil {
				return err
			}
			return navigate(cmd.Context(), cmd.Root(), loc)
		},
	}
}
