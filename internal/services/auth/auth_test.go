package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvVar(t *testing.T) {
	tests := map[string]string{
		"linode":     "EVENTWATCH_LINODE_TOKEN",
		" Hetzner ":  "EVENTWATCH_HETZNER_TOKEN",
		"my-cloud.x": "EVENTWATCH_MY_CLOUD_X_TOKEN",
	}
	for in, want := range tests {
		if got := EnvVar(in); got != want {
			t.Errorf("EnvVar(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnvStore_PrefersEnvironment(t *testing.T) {
	t.Setenv("EVENTWATCH_LINODE_TOKEN", " from-env ")

	mock := NewMockStore()
	mock.SetToken("linode", "from-keyring")
	store := NewEnvStore(mock)

	got, err := store.GetToken("linode")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Errorf("expected token from env, got %q", got)
	}
	if !store.FromEnv("Linode") {
		t.Error("expected FromEnv to be true")
	}
}

func TestEnvStore_FallsBack(t *testing.T) {
	t.Setenv("EVENTWATCH_HETZNER_TOKEN", "")

	mock := NewMockStore()
	store := NewEnvStore(mock)

	if _, err := store.GetToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	if err := store.SetToken("hetzner", "abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	got, err := store.GetToken("hetzner")
	if err != nil || got != "abc" {
		t.Errorf("expected abc from fallback, got %q, %v", got, err)
	}

	if err := store.DeleteToken("hetzner"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if err := store.DeleteToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound on second delete, got %v", err)
	}
}

func TestMockStore_NormalizesNames(t *testing.T) {
	m := NewMockStore()
	m.SetToken(" LINODE ", "abc")

	got, err := m.GetToken("linode")
	if err != nil || got != "abc" {
		t.Errorf("expected abc, got %q, %v", got, err)
	}
}

type failingStore struct{ MockStore }

func (*failingStore) GetToken(string) (string, error) {
	return "", errors.New("keychain locked")
}

func TestRequireToken(t *testing.T) {
	store := NewMockStore()

	_, err := RequireToken(store, "Linode")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	for _, want := range []string{"eventwatch auth login linode", "EVENTWATCH_LINODE_TOKEN"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}

	store.SetToken("linode", "tok")
	if got, err := RequireToken(store, " LINODE "); err != nil || got != "tok" {
		t.Errorf("RequireToken = %q, %v; want %q, nil", got, err, "tok")
	}

	_, err = RequireToken(&failingStore{}, "hetzner")
	if err == nil || errors.Is(err, ErrTokenNotFound) || !strings.Contains(err.Error(), "keychain locked") {
		t.Errorf("expected read failure to pass through, got %v", err)
	}
}
