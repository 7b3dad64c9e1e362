package notifications

import (
	"nathanbeddoewebdev/eventwatch/internal/notifylog"

	"github.com/spf13/cobra"
)

// openRepo opens the notification history. Tests replace it.
var openRepo = func() (notifylog.Repository, error) {
	return notifylog.Open()
}

// NewCommand returns the "notifications" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "View and manage completion history",
		Long: "View the completions reported by 'eventwatch watch' and prune old entries.\n\n" +
			"History is stored locally in ~/.config/eventwatch/eventwatch.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
