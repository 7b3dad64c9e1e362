package components

import (
	"fmt"

	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

// sparkHeight is the fixed height of every sparkline.
const sparkHeight = 3

// Sparkline renders a labelled single-series sparkline of the most recent
// values that fit in width, followed by a cur/min/max summary.
func Sparkline(label string, data []float64, width int) string {
	if len(data) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}

	plotWidth := max(width, 10)
	if len(data) > plotWidth {
		data = data[len(data)-plotWidth:]
	}

	lo, hi := minMax(data)
	sl := sparkline.New(plotWidth, sparkHeight,
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(styles.Blue)),
		sparkline.WithMaxValue(max(hi, 1)),
	)
	for _, v := range data {
		sl.Push(v)
	}
	sl.Draw()

	summary := styles.MutedText.Render(fmt.Sprintf("cur: %.0f  min: %.0f  max: %.0f", data[len(data)-1], lo, hi))
	return lipgloss.JoinVertical(lipgloss.Left, styles.Label.Render(label), sl.View(), summary)
}

// minMax returns the minimum and maximum values from a slice.
func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
