package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/events/providers"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"
)

// setupTestConfig points the config package at a temp file and disables
// the interactive viewer.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)

	prev := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = prev })
	return path
}

// registerTestProvider registers a stub fetcher in the global registry.
func registerTestProvider(t *testing.T, name string) {
	t.Helper()
	providers.Reset()
	t.Cleanup(providers.Reset)
	providers.Register(name, func(store auth.Store, settings providers.Settings) (domain.Fetcher, error) {
		return nil, nil
	})
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_DefaultProvider(t *testing.T) {
	setupTestConfig(t)
	registerTestProvider(t, "hetzner")

	stdout, stderr := execConfig(t, "set", "default-provider", "hetzner")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"hetzner"`) {
		t.Errorf("expected confirmation with provider name, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.DefaultProvider != "hetzner" {
		t.Errorf("expected DefaultProvider %q, got %q", "hetzner", cfg.DefaultProvider)
	}
}

func TestSet_DefaultProvider_UnknownProvider(t *testing.T) {
	setupTestConfig(t)
	registerTestProvider(t, "hetzner")

	_, stderr := execConfig(t, "set", "default-provider", "nonexistent")

	if !strings.Contains(stderr, "unknown provider") {
		t.Errorf("expected 'unknown provider' error, got: %s", stderr)
	}
}

func TestSet_DefaultProvider_CaseInsensitive(t *testing.T) {
	setupTestConfig(t)
	registerTestProvider(t, "hetzner")

	stdout, stderr := execConfig(t, "set", "default-provider", "HETZNER")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"hetzner"`) {
		t.Errorf("expected normalized provider name, got: %s", stdout)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}

func TestSet_PollInterval(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "poll-interval", "90s")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"1m30s"`) {
		t.Errorf("expected normalized duration, got: %s", stdout)
	}
}

func TestSet_InvalidValueNotSaved(t *testing.T) {
	path := setupTestConfig(t)

	_, stderr := execConfig(t, "set", "max-pages", "zero")

	if !strings.Contains(stderr, "Error:") {
		t.Errorf("expected an error, got: %s", stderr)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.MaxPages != 0 {
		t.Errorf("expected MaxPages unchanged, got %d", cfg.MaxPages)
	}
}

func TestSet_EmptyValueClears(t *testing.T) {
	path := setupTestConfig(t)
	if err := (&config.Config{APIURL: "http://localhost:8080"}).SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, stderr := execConfig(t, "set", "api-url", "")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "api-url cleared") {
		t.Errorf("expected cleared confirmation, got: %s", stdout)
	}
}
