package auth

import (
	"os"
	"strings"
)

// EnvStore reads tokens from EVENTWATCH_<PROVIDER>_TOKEN before falling
// back to another store. Writes always go to the fallback.
type EnvStore struct {
	next   Store
	lookup func(string) (string, bool)
}

func NewEnvStore(next Store) *EnvStore {
	return &EnvStore{next: next, lookup: os.LookupEnv}
}

// EnvVar returns the environment variable consulted for provider.
func EnvVar(provider string) string {
	key := strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(NormalizeProvider(provider))
	return "EVENTWATCH_" + strings.ToUpper(key) + "_TOKEN"
}

func (e *EnvStore) SetToken(provider string, token string) error {
	return e.next.SetToken(provider, token)
}

func (e *EnvStore) GetToken(provider string) (string, error) {
	if v, ok := e.lookup(EnvVar(provider)); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return e.next.GetToken(provider)
}

func (e *EnvStore) DeleteToken(provider string) error {
	return e.next.DeleteToken(provider)
}

// FromEnv reports whether provider's token currently comes from the
// environment.
func (e *EnvStore) FromEnv(provider string) bool {
	v, ok := e.lookup(EnvVar(provider))
	return ok && strings.TrimSpace(v) != ""
}
