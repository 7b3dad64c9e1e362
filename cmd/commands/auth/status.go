package auth

import (
	"fmt"
	"os"

	"nathanbeddoewebdev/eventwatch/internal/events/providers"
	"nathanbeddoewebdev/eventwatch/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdoutIsTerminal decides between the full-window view and plain output.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status for providers",
		Long: `Show which providers have an API token available.

Example:
  eventwatch auth status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newStore()
			names := providers.List()

			if stdoutIsTerminal() {
				if err := tui.RunAuthStatus(store, names); err != nil {
					return fmt.Errorf("auth status failed: %w", err)
				}
				return nil
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers registered.")
				return nil
			}

			for _, ps := range tui.ProviderStatuses(store, names) {
				line := fmt.Sprintf("%s: %s", ps.Name, ps.Status)
				if ps.FromEnv {
					line += " (env)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
