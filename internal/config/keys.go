package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/util"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "default-provider").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Default describes what applies while the key is unset.
	Default string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set validates value and applies it to the given Config (in memory
	// only; the caller is responsible for calling Save). An empty value
	// clears the key.
	Set func(cfg *Config, value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "default-provider",
		Description: "Events provider used when --provider is not specified",
		Default:     "linode",
		Get:         func(cfg *Config) string { return cfg.DefaultProvider },
		Set: func(cfg *Config, v string) error {
			cfg.DefaultProvider = util.NormalizeKey(v)
			return nil
		},
	},
	{
		Name:        "poll-interval",
		Description: "Base delay between polls, e.g. 2s",
		Default:     "2s",
		Get:         func(cfg *Config) string { return cfg.PollInterval },
		Set: func(cfg *Config, v string) error {
			if v == "" {
				cfg.PollInterval = ""
				return nil
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", v, err)
			}
			if d < 500*time.Millisecond {
				return fmt.Errorf("poll interval must be at least 500ms, got %s", d)
			}
			cfg.PollInterval = d.String()
			return nil
		},
	},
	{
		Name:        "max-backoff",
		Description: "Largest multiple of the poll interval to wait while idle",
		Default:     "16",
		Get:         func(cfg *Config) string { return intString(cfg.MaxBackoff) },
		Set:         func(cfg *Config, v string) error { return setPositiveInt(&cfg.MaxBackoff, v) },
	},
	{
		Name:        "max-pages",
		Description: "Maximum number of event pages read per poll",
		Default:     "1",
		Get:         func(cfg *Config) string { return intString(cfg.MaxPages) },
		Set:         func(cfg *Config, v string) error { return setPositiveInt(&cfg.MaxPages, v) },
	},
	{
		Name:        "log-level",
		Description: "Log level: debug, info, warn or error",
		Default:     "info",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set: func(cfg *Config, v string) error {
			v = util.NormalizeKey(v)
			switch v {
			case "", "debug", "info", "warn", "error":
				cfg.LogLevel = v
				return nil
			}
			return fmt.Errorf("unknown log level %q", v)
		},
	},
	{
		Name:        "api-url",
		Description: "Override the provider API endpoint",
		Default:     "provider endpoint",
		Get:         func(cfg *Config) string { return cfg.APIURL },
		Set: func(cfg *Config, v string) error {
			if v == "" {
				cfg.APIURL = ""
				return nil
			}
			u, err := url.Parse(v)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid URL %q", v)
			}
			cfg.APIURL = strings.TrimRight(v, "/")
			return nil
		},
	},
}

func intString(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func setPositiveInt(dst *int, v string) error {
	if v == "" {
		*dst = 0
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("expected a positive integer, got %q", v)
	}
	*dst = n
	return nil
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := util.NormalizeKey(name)
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// Effective returns the value of the key for cfg and whether it is the
// built-in default.
func (k KeySpec) Effective(cfg *Config) (string, bool) {
	if v := k.Get(cfg); v != "" {
		return v, false
	}
	return k.Default, true
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s (default: %s)\n", maxLen, k.Name, k.Description, k.Default)
	}
	return b.String()
}
