package tui

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/services/auth"
	"nathanbeddoewebdev/eventwatch/internal/tui/components"
	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProviderStatus is the token state of one provider.
type ProviderStatus struct {
	Name string

	// Status is "authenticated", "not authenticated" or an error message.
	Status string
	OK     bool

	// FromEnv is set when the token comes from an environment variable.
	FromEnv bool
}

// ProviderStatuses checks store for a token of every named provider.
func ProviderStatuses(store auth.Store, names []string) []ProviderStatus {
	env, _ := store.(*auth.EnvStore)

	statuses := make([]ProviderStatus, 0, len(names))
	for _, name := range names {
		_, err := store.GetToken(name)
		switch {
		case err == nil:
			statuses = append(statuses, ProviderStatus{
				Name:    name,
				Status:  "authenticated",
				OK:      true,
				FromEnv: env != nil && env.FromEnv(name),
			})
		case errors.Is(err, auth.ErrTokenNotFound):
			statuses = append(statuses, ProviderStatus{Name: name, Status: "not authenticated"})
		default:
			statuses = append(statuses, ProviderStatus{Name: name, Status: fmt.Sprintf("error: %v", err)})
		}
	}
	return statuses
}

// --- Auth status model ---

type authStatusModel struct {
	statuses []ProviderStatus

	width  int
	height int
}

// RunAuthStatus starts the full-window auth status view.
func RunAuthStatus(store auth.Store, names []string) error {
	m := authStatusModel{statuses: ProviderStatuses(store, names)}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m authStatusModel) Init() tea.Cmd {
	return nil
}

func (m authStatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m authStatusModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth status", "")
	footer := components.Footer(m.width, []components.KeyBinding{{Key: "q", Desc: "quit"}})

	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderContent(contentH), footer)
}

func (m authStatusModel) renderContent(height int) string {
	if len(m.statuses) == 0 {
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No providers registered."),
		)
	}

	rows := make([]string, 0, len(m.statuses))
	for _, ps := range m.statuses {
		name := styles.Label.Width(16).Render(ps.Name)

		var status string
		switch {
		case ps.OK && ps.FromEnv:
			status = styles.SuccessText.Render("authenticated") + styles.MutedText.Render(" (env)")
		case ps.OK:
			status = styles.SuccessText.Render("authenticated")
		default:
			status = styles.MutedText.Render(ps.Status)
		}
		rows = append(rows, name+status)
	}

	card := styles.Card.Width(48).Render(strings.Join(rows, "\n"))
	combined := lipgloss.JoinVertical(lipgloss.Center, styles.Title.Render("Provider Authentication"), "", card)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		combined,
	)
}
