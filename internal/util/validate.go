package util

import (
	"fmt"
	"regexp"
)

var providerNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// ValidateProviderName checks a provider name as typed on the command line.
// It must normalize to at least two characters of lowercase letters, digits
// and inner hyphens, starting with a letter.
func ValidateProviderName(name string) error {
	key := NormalizeKey(name)
	if len(key) < 2 {
		return fmt.Errorf("provider name must be at least 2 characters, got %q", name)
	}
	if !providerNamePattern.MatchString(key) {
		return fmt.Errorf("provider name %q may only contain letters, digits and inner hyphens", name)
	}
	return nil
}
