package components

import (
	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// StatusBar renders a one-line status message between the content and the
// footer. Long messages are truncated to the bar width.
func StatusBar(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}

	style := styles.MutedText
	if isError {
		style = styles.ErrorText
	}
	if width > 4 {
		message = ansi.Truncate(message, width-4, "…")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(style.Render(message))
}
