package config

import (
	"fmt"
	"slices"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/events/providers"
	"nathanbeddoewebdev/eventwatch/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value. An empty value clears the key.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  eventwatch config set default-provider hetzner\n" +
			"  eventwatch config set poll-interval 5s\n" +
			"  eventwatch config set api-url \"\"",
		Args: cobra.ExactArgs(2),
		Run:  runSet,
	}

	return cmd
}

// validators maps key names to checks that need more than the key itself
// knows, such as the provider registry.
var validators = map[string]func(cmd *cobra.Command, value string) error{
	"default-provider": validateProvider,
}

func runSet(cmd *cobra.Command, args []string) {
	key := util.NormalizeKey(args[0])
	value := strings.TrimSpace(args[1])

	spec := config.Lookup(key)
	if spec == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown configuration key %q\n", args[0])
		fmt.Fprintf(cmd.ErrOrStderr(), "Valid keys: %s\n", strings.Join(config.KeyNames(), ", "))
		return
	}

	if validate, ok := validators[spec.Name]; ok && value != "" {
		if err := validate(cmd, value); err != nil {
			return // validate already printed the error
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if err := spec.Set(cfg, value); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if stored := spec.Get(cfg); stored == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s cleared\n", spec.Name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, stored)
	}
}

// validateProvider checks that the given name is a registered provider.
func validateProvider(cmd *cobra.Command, name string) error {
	normalized := util.NormalizeKey(name)
	known := providers.List()
	if slices.Contains(known, normalized) {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown provider %q\n", name)
	fmt.Fprintf(cmd.ErrOrStderr(), "Registered providers: %v\n", known)
	return fmt.Errorf("unknown provider %q", name)
}
