package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/services/auth"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels an interactive form.
var ErrAborted = errors.New("aborted by user")

// AuthLoginResult holds the outcome of the login form.
type AuthLoginResult struct {
	Saved bool
}

// RunAuthLogin prompts for an API token with a masked input and stores it
// for provider.
func RunAuthLogin(provider string, store auth.Store) (*AuthLoginResult, error) {
	accessible := os.Getenv("ACCESSIBLE") != ""

	var token string
	input := huh.NewInput().
		Title(fmt.Sprintf("%s API token", provider)).
		Description("The token needs read access to account events.").
		Placeholder("paste your API token here").
		EchoMode(huh.EchoModePassword).
		Value(&token).
		Validate(validateToken)

	if err := runForm(accessible, huh.NewGroup(input)); err != nil {
		return nil, err
	}

	if err := store.SetToken(provider, strings.TrimSpace(token)); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return &AuthLoginResult{Saved: true}, nil
}

func validateToken(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("token cannot be empty")
	}
	return nil
}

// runForm runs a huh form, mapping a user abort to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}
