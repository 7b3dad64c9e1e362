package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/tui/components"
	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// configSavedMsg reports the outcome of writing the config file.
type configSavedMsg struct {
	key string
	err error
}

type configViewModel struct {
	cfg  *config.Config
	keys []config.KeySpec
	save func() error

	cursor  int
	editing bool
	editor  textinput.Model

	width, height int

	status  string
	isError bool
}

// RunConfigView opens the settings editor on the user's config file.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, err = tea.NewProgram(newConfigView(cfg, config.Keys), tea.WithAltScreen()).Run()
	return err
}

func newConfigView(cfg *config.Config, keys []config.KeySpec) configViewModel {
	return configViewModel{cfg: cfg, keys: keys, save: cfg.Save}
}

func (m configViewModel) Init() tea.Cmd { return nil }

func (m configViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case configSavedMsg:
		if msg.err != nil {
			m.setStatus("Error: "+msg.err.Error(), true)
			return m, nil
		}
		m.editing = false
		m.setStatus("Saved "+msg.key, false)
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *configViewModel) setStatus(s string, isError bool) {
	m.status, m.isError = s, isError
}

func (m configViewModel) selected() config.KeySpec {
	return m.keys[m.cursor]
}

func (m configViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.keys) == 0 {
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.keys)-1)
	case "enter", "e":
		spec := m.selected()
		ti := textinput.New()
		ti.SetValue(spec.Get(m.cfg))
		ti.Placeholder = spec.Default
		ti.Width = 32
		ti.Focus()
		m.editor = ti
		m.editing = true
		m.setStatus("", false)
		return m, textinput.Blink
	case "x", "delete":
		return m.apply("")
	}
	return m, nil
}

func (m configViewModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		return m.apply(strings.TrimSpace(m.editor.Value()))
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// apply validates value for the selected key and saves the config. An
// empty value reverts the key to its default. A rejected value keeps the
// editor open.
func (m configViewModel) apply(value string) (tea.Model, tea.Cmd) {
	spec := m.selected()
	if err := spec.Set(m.cfg, value); err != nil {
		m.setStatus("Error: "+err.Error(), true)
		return m, nil
	}
	save, key := m.save, spec.Name
	return m, func() tea.Msg {
		return configSavedMsg{key: key, err: save()}
	}
}

func (m configViewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	bindings := []components.KeyBinding{
		{Key: "j/k", Desc: "navigate"},
		{Key: "e", Desc: "edit"},
		{Key: "x", Desc: "reset to default"},
		{Key: "q", Desc: "quit"},
	}
	if m.editing {
		bindings = []components.KeyBinding{
			{Key: "enter", Desc: "save"},
			{Key: "esc", Desc: "cancel"},
		}
	}

	sections := []string{components.Header(m.width, "config", "")}
	footer := components.Footer(m.width, bindings)
	var statusBar string
	if m.status != "" {
		statusBar = components.StatusBar(m.width, m.status, m.isError)
	}

	used := lipgloss.Height(sections[0]) + lipgloss.Height(footer)
	if statusBar != "" {
		used += lipgloss.Height(statusBar)
	}
	sections = append(sections, m.renderContent(max(m.height-used, 1)))
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m configViewModel) renderContent(height int) string {
	const labelWidth = 20

	var body string
	if len(m.keys) == 0 {
		body = styles.MutedText.Render("No configuration keys defined.")
	} else {
		overridden := 0
		rows := make([]string, 0, len(m.keys)+1)
		for i, spec := range m.keys {
			value, isDefault := spec.Effective(m.cfg)
			if !isDefault {
				overridden++
			}
			rows = append(rows, m.renderRow(i, spec, value, isDefault, labelWidth))
		}
		rows = append(rows, "", styles.MutedText.Render(fmt.Sprintf("%d of %d keys set", overridden, len(m.keys))))
		body = styles.Card.Width(60).Render(strings.Join(rows, "\n"))
	}

	combined := lipgloss.JoinVertical(lipgloss.Center, styles.Title.Render("Settings"), "", body)
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, combined)
}

func (m configViewModel) renderRow(i int, spec config.KeySpec, value string, isDefault bool, labelWidth int) string {
	if i != m.cursor {
		if isDefault {
			value += " (default)"
		}
		return "  " + styles.MutedText.Width(labelWidth).Render(spec.Name) + styles.MutedText.Render(value)
	}

	name := styles.AccentText.Render("> ") + styles.Label.Width(labelWidth).Render(spec.Name)
	if m.editing {
		return name + m.editor.View()
	}

	shown := styles.Value.Bold(true).Render(value)
	if isDefault {
		shown = styles.MutedText.Render(value + " (default)")
	}
	return name + shown + "\n    " + styles.MutedText.Italic(true).Render(spec.Description)
}
