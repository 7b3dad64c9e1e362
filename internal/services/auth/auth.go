// Package auth stores provider API tokens.
package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/eventwatch/internal/util"
)

// ServiceName is the keychain service tokens are filed under.
const ServiceName = "eventwatch"

var ErrTokenNotFound = errors.New("auth token not found")

type Store interface {
	SetToken(provider string, token string) error
	GetToken(provider string) (string, error)
	DeleteToken(provider string) error
}

// DefaultStore returns the standard auth store: environment variables
// first, then the OS keychain.
func DefaultStore() Store {
	return NewEnvStore(NewKeyringStore(ServiceName))
}

// RequireToken returns the token for provider. A missing token produces
// an error telling the user how to supply one.
func RequireToken(store Store, provider string) (string, error) {
	key := NormalizeProvider(provider)
	token, err := store.GetToken(key)
	if errors.Is(err, ErrTokenNotFound) {
		return "", fmt.Errorf("%s: no API token (run 'eventwatch auth login %s' or set %s): %w",
			key, key, EnvVar(key), err)
	}
	if err != nil {
		return "", fmt.Errorf("%s: failed to read API token: %w", key, err)
	}
	return token, nil
}

// NormalizeProvider normalizes a provider name for consistent key lookup.
func NormalizeProvider(provider string) string {
	return util.NormalizeKey(provider)
}
