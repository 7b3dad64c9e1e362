package cmd

import (
	"slices"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"auth", "config", "events", "notifications", "watch"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q (have %v)", want, names)
		}
	}
}
