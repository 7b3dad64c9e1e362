package config

import (
	"nathanbeddoewebdev/eventwatch/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage eventwatch configuration",
		Long: "View and modify persistent eventwatch settings.\n\n" +
			"Configuration is stored at ~/.config/eventwatch/config.json.\n" +
			"Command-line flags take precedence over these values.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
