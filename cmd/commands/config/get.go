package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/tui"
	"nathanbeddoewebdev/eventwatch/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdoutIsTerminal decides whether the interactive viewer opens. Tests
// replace it.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Show configuration values",
		Long: "Show the effective value of one or all configuration keys. Keys that\n" +
			"are not set report the built-in default.\n\n" +
			"Without a key on a terminal, opens an interactive editor.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  eventwatch config get                  # interactive editor\n" +
			"  eventwatch config get poll-interval    # a single value\n" +
			"  eventwatch config get -o json          # every key, machine readable",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}

	cmd.Flags().String("key", "", "Configuration key to print (same as the positional argument)")
	cmd.Flags().StringP("output", "o", "", "Output format for listing all keys: text or json")

	return cmd
}

// setting is one row of the listing.
type setting struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Default bool   `json:"default"`
}

func runGet(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("key")
	name = strings.TrimSpace(name)
	if name == "" && len(args) == 1 {
		name = strings.TrimSpace(args[0])
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "" && output != "text" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if name == "" && output == "" && stdoutIsTerminal() {
		if err := tui.RunConfigView(); err != nil {
			return fmt.Errorf("config view failed: %w", err)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if name == "" {
		settings := make([]setting, 0, len(config.Keys))
		for _, spec := range config.Keys {
			value, isDefault := spec.Effective(cfg)
			settings = append(settings, setting{Key: spec.Name, Value: value, Default: isDefault})
		}
		if output == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	}

	spec := config.Lookup(util.NormalizeKey(name))
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", name, strings.Join(config.KeyNames(), ", "))
	}

	value, isDefault := spec.Effective(cfg)
	if isDefault {
		value += " (default)"
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func printSettings(w io.Writer, settings []setting) {
	for _, s := range settings {
		line := s.Key + ": " + s.Value
		if s.Default {
			line += " (default)"
		}
		fmt.Fprintln(w, line)
	}
}
