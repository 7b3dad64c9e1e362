package auth

import (
	"nathanbeddoewebdev/eventwatch/internal/services/auth"

	"github.com/spf13/cobra"
)

// newStore returns the token store used by every auth command. Tests
// replace it with an in-memory store.
var newStore = auth.DefaultStore

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API tokens for providers",
		Long: `Manage API tokens for providers.

Tokens are stored in the OS keychain. An EVENTWATCH_<PROVIDER>_TOKEN
environment variable takes precedence over the keychain.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(LogoutCommand())

	return cmd
}
