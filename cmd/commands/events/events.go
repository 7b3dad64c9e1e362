package events

import "github.com/spf13/cobra"

// NewCommand returns the "events" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the account event feed",
		Long: `Inspect the account event feed of a provider without starting the
poll loop.`,
	}

	cmd.AddCommand(ListCommand())

	return cmd
}
