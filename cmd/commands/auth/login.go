package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/tui"
	"nathanbeddoewebdev/eventwatch/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether the token can be prompted for. Tests
// replace it.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API token for a provider",
		Long: `Store an API token for a provider in the OS keychain.

Without --token the token is prompted for on a terminal, or read from
the first line of stdin otherwise.

Examples:
  eventwatch auth login linode
  echo "$TOKEN" | eventwatch auth login hetzner`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "API token (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	provider := util.NormalizeKey(args[0])
	if err := util.ValidateProviderName(provider); err != nil {
		return err
	}

	store := newStore()
	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)

	if token == "" && stdinIsTerminal() {
		result, err := tui.RunAuthLogin(provider, store)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Login cancelled.")
				return nil
			}
			return fmt.Errorf("auth login failed: %w", err)
		}
		if result.Saved {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token for provider %s\n", provider)
		}
		return nil
	}

	if token == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := store.SetToken(provider, token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved token for provider %s\n", provider)
	return nil
}
