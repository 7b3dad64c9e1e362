// Package components provides render-only building blocks shared by the
// eventwatch bubbletea models.
package components

import (
	"strings"

	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Header renders the application header bar.
//
//	┌──────────────────────────────────────────┐
//	│  eventwatch > watch              Linode  │
//	└──────────────────────────────────────────┘
func Header(width int, breadcrumb string, provider string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("eventwatch")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	right := ""
	if provider != "" {
		right = styles.Subtitle.Render(provider)
	}

	innerWidth := width - 4
	rightLen := lipgloss.Width(right)
	if lipgloss.Width(left)+rightLen+1 > innerWidth {
		left = ansi.Truncate(left, max(innerWidth-rightLen-1, 1), "…")
	}
	gap := max(innerWidth-lipgloss.Width(left)-rightLen, 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}
