package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestHeader_FitsWidth(t *testing.T) {
	out := Header(40, "watch", "Linode")
	if !strings.Contains(out, "eventwatch") {
		t.Errorf("expected app name in header, got %q", out)
	}
	if !strings.Contains(out, "Linode") {
		t.Errorf("expected provider in header, got %q", out)
	}
	if w := lipgloss.Width(out); w > 40 {
		t.Errorf("header width = %d, want <= 40", w)
	}
}

func TestHeader_TooNarrow(t *testing.T) {
	if out := Header(5, "watch", "Linode"); out != "" {
		t.Errorf("expected empty header, got %q", out)
	}
}

func TestFooter_TruncatesBindings(t *testing.T) {
	bindings := []KeyBinding{
		{Key: "r", Desc: "poll now"},
		{Key: "q", Desc: "quit"},
		{Key: "?", Desc: "a rather long description that cannot fit"},
	}
	out := Footer(30, bindings)
	if w := lipgloss.Width(out); w > 30 {
		t.Errorf("footer width = %d, want <= 30", w)
	}
	if Footer(30, nil) != "" {
		t.Error("expected empty footer without bindings")
	}
}

func TestStatusBar_EmptyMessage(t *testing.T) {
	if out := StatusBar(80, "", true); out != "" {
		t.Errorf("expected empty status bar, got %q", out)
	}
	if out := StatusBar(80, "poll failed", true); !strings.Contains(out, "poll failed") {
		t.Errorf("expected message in status bar, got %q", out)
	}
}

func TestSparkline_NoData(t *testing.T) {
	out := Sparkline("in progress", nil, 40)
	if !strings.Contains(out, "no data") {
		t.Errorf("expected no-data placeholder, got %q", out)
	}
}

func TestSparkline_Summary(t *testing.T) {
	out := Sparkline("in progress", []float64{0, 3, 1}, 40)
	if !strings.Contains(out, "cur: 1  min: 0  max: 3") {
		t.Errorf("expected summary line, got %q", out)
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{4, -1, 7, 2})
	if lo != -1 || hi != 7 {
		t.Errorf("minMax = (%v, %v), want (-1, 7)", lo, hi)
	}
}
