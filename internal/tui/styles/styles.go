package styles

import (
	"nathanbeddoewebdev/eventwatch/internal/events/domain"

	"github.com/charmbracelet/lipgloss"
)

// --- Typography ---

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	// Subtitle is used for secondary headings.
	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	// Label is used for field names and section headings.
	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Bold(true)

	// Value is used for field values.
	Value = lipgloss.NewStyle().
		Foreground(White)

	// MutedText is for help text, hints, and less important info.
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// AccentText is for highlighted interactive elements.
	AccentText = lipgloss.NewStyle().
			Foreground(Blue)

	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)
)

// --- Event status ---

var statusColors = map[domain.Status]lipgloss.Color{
	domain.StatusFinished:     Green,
	domain.StatusStarted:      Yellow,
	domain.StatusScheduled:    Yellow,
	domain.StatusFailed:       Red,
	domain.StatusNotification: Blue,
}

// StatusStyle returns the style for an event status. Terminal states are
// bold; unknown statuses render gray.
func StatusStyle(status domain.Status) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		return lipgloss.NewStyle().Foreground(Gray)
	}
	style := lipgloss.NewStyle().Foreground(color)
	if status == domain.StatusFinished || status == domain.StatusFailed {
		style = style.Bold(true)
	}
	return style
}

// StatusIndicator returns a colored dot followed by the status.
func StatusIndicator(status domain.Status) string {
	style := StatusStyle(status)
	return style.Render("●") + " " + style.Render(string(status))
}

// --- Layout components ---

var (
	// Card is a rounded-border panel for content sections.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(0, 1)
)

// --- Key binding hint styles ---

var (
	// KeyStyle is used for key labels in the footer (e.g. "q").
	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	// KeyDescStyle is used for key descriptions in the footer (e.g. "quit").
	KeyDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// KeySepStyle is used for separators between key bindings.
	KeySepStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// FormatKeyBinding formats a single key binding for the footer.
func FormatKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + KeyDescStyle.Render(desc)
}
