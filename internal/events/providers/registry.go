package providers

import (
	"fmt"
	"slices"
	"sync"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"
	"nathanbeddoewebdev/eventwatch/internal/util"
)

// Settings carries per-invocation overrides for a fetcher.
type Settings struct {
	// BaseURL replaces the provider's default API endpoint when set.
	BaseURL string
}

// Factory builds a Fetcher, pulling whatever credentials it needs from store.
type Factory func(store auth.Store, settings Settings) (domain.Fetcher, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := util.NormalizeKey(name)
	if key == "" {
		panic("providers: empty provider name")
	}
	if factory == nil {
		panic("providers: nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("providers: provider %q already registered", name))
	}
	registry[key] = factory
}

// Get resolves the named provider and builds its fetcher.
func Get(name string, store auth.Store, settings Settings) (domain.Fetcher, error) {
	key := util.NormalizeKey(name)
	mu.RLock()
	factory, ok := registry[key]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("providers: unknown provider %q (known: %v)", name, List())
	}

	fetcher, err := factory(store, settings)
	if err != nil {
		return nil, err
	}
	return fetcher, nil
}

// Reset clears the provider registry. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]Factory{}
}

// List returns the registered provider names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RegisterAll registers every built-in fetcher. Safe to call once per process.
func RegisterAll() {
	RegisterLinode()
	RegisterHetzner()
}
