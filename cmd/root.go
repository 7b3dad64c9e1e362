package cmd

import (
	"os"

	"nathanbeddoewebdev/eventwatch/cmd/commands/auth"
	cfgcmd "nathanbeddoewebdev/eventwatch/cmd/commands/config"
	"nathanbeddoewebdev/eventwatch/cmd/commands/events"
	"nathanbeddoewebdev/eventwatch/cmd/commands/notifications"
	"nathanbeddoewebdev/eventwatch/cmd/commands/watch"
	"nathanbeddoewebdev/eventwatch/internal/events/providers"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "eventwatch",
		Short: "Watch cloud account events and report completed actions",
		Long: `eventwatch polls the account event feed of a cloud provider, keeps
track of actions that are still running (reboots, resizes, volume
attaches, ...) and reports each one exactly once when it completes.

Supported providers: Linode, Hetzner.

Quick start:
  eventwatch auth login linode     # Store your API token
  eventwatch events list           # Show recent events
  eventwatch watch                 # Live dashboard of running actions
  eventwatch notifications list    # Completions seen so far`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(events.NewCommand())
	cmd.AddCommand(notifications.NewCommand())
	cmd.AddCommand(watch.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	providers.RegisterAll()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
