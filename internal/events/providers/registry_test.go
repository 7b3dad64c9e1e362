package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"
)

type stubFetcher struct{ name string }

func (s stubFetcher) GetDisplayName() string { return s.name }

func (s stubFetcher) FetchEvents(ctx context.Context, req domain.FetchRequest) (*domain.Batch, error) {
	return &domain.Batch{Events: []domain.Event{}, Watermark: req.Since}, nil
}

func TestRegistry_GetNormalizesName(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var gotSettings Settings
	Register("  Stub ", func(store auth.Store, settings Settings) (domain.Fetcher, error) {
		gotSettings = settings
		return stubFetcher{name: "Stub"}, nil
	})

	f, err := Get("STUB", auth.NewMockStore(), Settings{BaseURL: "http://example.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.GetDisplayName() != "Stub" {
		t.Errorf("expected Stub, got %q", f.GetDisplayName())
	}
	if gotSettings.BaseURL != "http://example.test" {
		t.Errorf("settings not forwarded, got %+v", gotSettings)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Get("nope", auth.NewMockStore(), Settings{})
	if err == nil || !strings.Contains(err.Error(), `unknown provider "nope"`) {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	factory := func(store auth.Store, settings Settings) (domain.Fetcher, error) { return stubFetcher{}, nil }
	Register("stub", factory)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("Stub", factory)
}

func TestRegisterAll_ListsSorted(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	RegisterAll()

	if diff := cmp.Diff([]string{"hetzner", "linode"}, List()); diff != "" {
		t.Errorf("providers mismatch (-want +got):\n%s", diff)
	}
}
