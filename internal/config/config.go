// Package config handles persistent user configuration for eventwatch.
//
// Configuration is stored as JSON at ~/.config/eventwatch/config.json (or the
// platform-equivalent path returned by os.UserConfigDir).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	appDir   = "eventwatch"
	fileName = "config.json"
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations. Zero
// values mean "use the built-in default"; command flags override both.
type Config struct {
	DefaultProvider string `json:"default_provider,omitempty"`

	// PollInterval is the base poll interval as a Go duration string.
	PollInterval string `json:"poll_interval,omitempty"`

	// MaxBackoff caps the poll backoff multiplier.
	MaxBackoff int `json:"max_backoff,omitempty"`

	// MaxPages caps how many pages one poll may read.
	MaxPages int `json:"max_pages,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// APIURL overrides the provider's API endpoint.
	APIURL string `json:"api_url,omitempty"`
}

// PollIntervalOr returns the configured poll interval, or def when unset
// or unparsable.
func (c *Config) PollIntervalOr(def time.Duration) time.Duration {
	if c.PollInterval == "" {
		return def
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// IntOr returns v, or def when v is not positive.
func IntOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// StringOr returns v, or def when v is empty.
func StringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// Path returns the config file location: the SetPath override if any,
// otherwise eventwatch/config.json under os.UserConfigDir.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

func resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return Path()
}

// Load reads the config file. A missing file yields a zero Config. Values
// that fail their key's validation (e.g. a hand-edited poll interval) are
// reported as errors rather than silently ignored.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load for an explicit path. An empty path means Path().
func LoadFrom(path string) (*Config, error) {
	path, err := resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// validate replays every stored value through its key's setter.
func (c *Config) validate() error {
	for _, spec := range Keys {
		if err := spec.Set(&Config{}, spec.Get(c)); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
	}
	return nil
}

// Save writes the config to Path().
func (c *Config) Save() error {
	return c.SaveTo("")
}

// SaveTo writes the config to path, or Path() when empty. The file is
// replaced atomically so a running watch never reads a partial file.
func (c *Config) SaveTo(path string) error {
	path, err := resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: failed to replace %s: %w", path, err)
	}
	return nil
}
