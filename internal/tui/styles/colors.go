// Package styles provides the color palette and style definitions shared by
// every eventwatch view.
package styles

import "github.com/charmbracelet/lipgloss"

// --- Color palette ---

var (
	// Core text
	White   = lipgloss.Color("#E2E2E2")
	Gray    = lipgloss.Color("#888888")
	Muted   = lipgloss.Color("#555555")
	DimGray = lipgloss.Color("#444444")

	// Accent
	Blue    = lipgloss.Color("#5FAFFF")
	DimBlue = lipgloss.Color("#3A6FA0")

	// Status
	Green  = lipgloss.Color("#5FD787")
	Yellow = lipgloss.Color("#FFD787")
	Red    = lipgloss.Color("#FF8787")

	// Progress bar gradient ends.
	ProgressFrom = string(DimBlue)
	ProgressTo   = string(Blue)
)
