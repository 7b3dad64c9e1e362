package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/eventwatch/internal/services/auth"
	"nathanbeddoewebdev/eventwatch/internal/util"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove the stored API token for a provider",
		Long: `Remove the API token stored in the OS keychain for a provider.

A token supplied through the environment is not affected.

Example:
  eventwatch auth logout linode`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogout,
		SilenceUsage: true,
	}

	return cmd
}

func runLogout(cmd *cobra.Command, args []string) error {
	provider := util.NormalizeKey(args[0])
	if err := util.ValidateProviderName(provider); err != nil {
		return err
	}

	store := newStore()
	err := store.DeleteToken(provider)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		fmt.Fprintf(cmd.OutOrStdout(), "No stored token for provider %s\n", provider)
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed token for provider %s\n", provider)
	if env, ok := store.(*auth.EnvStore); ok && env.FromEnv(provider) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s is still set and will be used.\n", auth.EnvVar(provider))
	}
	return nil
}
