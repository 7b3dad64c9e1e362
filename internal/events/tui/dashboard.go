// Package tui renders the poller state: a live bubbletea dashboard for
// terminals and a line-oriented stream for everything else.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/services/poller"
	"nathanbeddoewebdev/eventwatch/internal/tui/components"
	"nathanbeddoewebdev/eventwatch/internal/tui/styles"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	// maxHistory bounds the in-progress count series behind the sparkline.
	maxHistory = 240

	// maxCompletedRows is how many recent completions the dashboard lists.
	maxCompletedRows = 8

	actionWidth = 24
	entityWidth = 20
)

// Dispatcher accepts poller operations. *poller.Service implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, op poller.Op) error
}

// --- Messages ---

type snapshotMsg poller.Snapshot

type subscriptionClosedMsg struct{}

type resetDoneMsg struct {
	err error
}

// --- Dashboard model ---

// DashboardModel is the watch view. It redraws on every poller snapshot.
type DashboardModel struct {
	ctx        context.Context
	provider   string
	dispatcher Dispatcher
	snapshots  <-chan poller.Snapshot
	now        func() time.Time

	spinner spinner.Model
	bar     progress.Model

	snap    poller.Snapshot
	polled  bool
	history []float64

	status    string
	statusErr bool

	width  int
	height int
}

// NewDashboard returns a dashboard fed by snapshots. Pressing r sends
// poller.Reset to dispatcher.
func NewDashboard(ctx context.Context, provider string, dispatcher Dispatcher, snapshots <-chan poller.Snapshot) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentText

	return DashboardModel{
		ctx:        ctx,
		provider:   provider,
		dispatcher: dispatcher,
		snapshots:  snapshots,
		now:        time.Now,
		spinner:    sp,
		bar:        progress.New(progress.WithGradient(styles.ProgressFrom, styles.ProgressTo), progress.WithWidth(30)),
	}
}

// RunDashboard runs the dashboard full-screen until the user quits, ctx is
// cancelled or the subscription closes.
func RunDashboard(ctx context.Context, provider string, dispatcher Dispatcher, snapshots <-chan poller.Snapshot) error {
	m := NewDashboard(ctx, provider, dispatcher, snapshots)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func waitForSnapshot(ch <-chan poller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.snapshots))
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(m.width-actionWidth-entityWidth-16, 40), 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			m.status = "poll scheduled"
			m.statusErr = false
			return m, m.reset()
		}
		return m, nil

	case snapshotMsg:
		m.apply(poller.Snapshot(msg))
		return m, waitForSnapshot(m.snapshots)

	case subscriptionClosedMsg:
		return m, tea.Quit

	case resetDoneMsg:
		if msg.err != nil {
			m.status = "reset failed: " + msg.err.Error()
			m.statusErr = true
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m DashboardModel) reset() tea.Cmd {
	return func() tea.Msg {
		return resetDoneMsg{err: m.dispatcher.Dispatch(m.ctx, poller.Reset{})}
	}
}

func (m *DashboardModel) apply(snap poller.Snapshot) {
	m.snap = snap
	m.polled = true

	if snap.Err != nil {
		m.status = fmt.Sprintf("poll failed (%d in a row): %v", snap.Failures, snap.Err)
		m.statusErr = true
		return
	}

	m.history = append(m.history, float64(len(snap.State.InProgress)))
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}

	switch n := len(snap.Newly); {
	case n == 1:
		e := snap.Newly[0]
		m.status = fmt.Sprintf("%s on %s %s", e.Action, e.EntityLabel(), e.Status)
	case n > 1:
		m.status = fmt.Sprintf("%d events completed", n)
	default:
		m.status = "last poll " + snap.At.Format(time.TimeOnly)
	}
	m.statusErr = false
}

func (m DashboardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "watch", m.provider)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "r", Desc: "poll soon"},
		{Key: "q", Desc: "quit"},
	})
	status := components.StatusBar(m.width, m.status, m.statusErr)

	used := lipgloss.Height(header) + lipgloss.Height(footer)
	if status != "" {
		used += lipgloss.Height(status)
	}
	content := lipgloss.NewStyle().
		Height(max(m.height-used, 1)).
		Padding(1, 2).
		Render(m.renderContent())

	parts := []string{header, content}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m DashboardModel) renderContent() string {
	if !m.polled {
		return m.spinner.View() + " " + styles.MutedText.Render("Waiting for the first poll...")
	}

	sections := []string{
		m.renderInProgress(),
		m.renderCompleted(),
		components.Sparkline("In progress", m.history, max(m.width-6, 10)),
		m.renderSchedule(),
	}
	return strings.Join(sections, "\n\n")
}

func (m DashboardModel) renderInProgress() string {
	events := m.snap.State.InProgress
	title := styles.Label.Render(fmt.Sprintf("In progress (%d)", len(events)))
	if len(events) == 0 {
		return title + "\n" + styles.MutedText.Render("Nothing running.")
	}

	rows := make([]string, 0, len(events))
	for _, e := range events {
		pct := 0
		if e.PercentComplete != nil {
			pct = *e.PercentComplete
		}
		rows = append(rows, m.spinner.View()+" "+
			cell(e.Action, actionWidth)+
			cell(e.EntityLabel(), entityWidth)+
			m.bar.ViewAs(float64(pct)/100))
	}
	return title + "\n" + strings.Join(rows, "\n")
}

func (m DashboardModel) renderCompleted() string {
	completed := m.snap.State.Completed
	title := styles.Label.Render(fmt.Sprintf("Completed (%d)", len(completed)))
	if len(completed) == 0 {
		return title + "\n" + styles.MutedText.Render("No completions yet.")
	}

	now := m.now()
	rows := make([]string, 0, maxCompletedRows)
	for i := len(completed) - 1; i >= 0 && len(rows) < maxCompletedRows; i-- {
		e := completed[i]
		rows = append(rows, cell(e.Action, actionWidth)+
			cell(e.EntityLabel(), entityWidth)+
			styles.StatusIndicator(e.Status)+"  "+
			styles.MutedText.Render(ago(now, e.Updated.Time())))
	}
	return title + "\n" + strings.Join(rows, "\n")
}

func (m DashboardModel) renderSchedule() string {
	parts := []string{fmt.Sprintf("backoff x%d", m.snap.Iteration)}
	if !m.snap.Watermark.IsZero() {
		parts = append(parts, "watermark "+m.snap.Watermark.UTC().Format(domain.TimestampLayout))
	}
	return styles.MutedText.Render(strings.Join(parts, "  ·  "))
}

// cell renders s left-aligned in a fixed-width column, truncating it when
// needed.
func cell(s string, width int) string {
	return styles.Value.Width(width).Render(ansi.Truncate(s, width-1, "…"))
}

// ago renders a coarse relative time.
func ago(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format(time.DateOnly)
	}
}
