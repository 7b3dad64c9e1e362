package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/events/queue"
	"nathanbeddoewebdev/eventwatch/internal/services/poller"

	tea "github.com/charmbracelet/bubbletea"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	ops []poller.Op
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, op poller.Op) error {
	d.ops = append(d.ops, op)
	return d.err
}

func event(id int64, action string, pct int) domain.Event {
	return domain.Event{
		ID:              id,
		Action:          action,
		Status:          domain.StatusStarted,
		PercentComplete: domain.Percent(pct),
		Created:         domain.NewTimestamp(t0),
		Updated:         domain.NewTimestamp(t0),
		Entity:          &domain.Entity{ID: "7", Label: "web-1", Type: "linode"},
	}
}

func sized(t *testing.T, m DashboardModel) DashboardModel {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(DashboardModel)
}

func TestDashboard_WaitsForFirstPoll(t *testing.T) {
	m := sized(t, NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, nil))
	if view := m.View(); !strings.Contains(view, "Waiting for the first poll") {
		t.Errorf("expected waiting message, got:\n%s", view)
	}
}

func TestDashboard_RendersSnapshot(t *testing.T) {
	m := sized(t, NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, nil))

	done := event(2, "disk_resize", 100)
	done.Status = domain.StatusFinished
	snap := poller.Snapshot{
		State: queue.State{
			InProgress: []domain.Event{event(1, "linode_boot", 40)},
			Completed:  []domain.Event{done},
		},
		Newly:     []domain.Event{done},
		At:        t0,
		Watermark: t0,
		Iteration: 1,
	}

	next, cmd := m.Update(snapshotMsg(snap))
	if cmd == nil {
		t.Error("expected a command waiting for the next snapshot")
	}
	m = next.(DashboardModel)
	m.now = func() time.Time { return t0.Add(5 * time.Minute) }

	view := m.View()
	for _, want := range []string{"linode_boot", "disk_resize", "web-1", "In progress (1)", "Completed (1)", "5m ago", "disk_resize on web-1 finished"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
	if len(m.history) != 1 || m.history[0] != 1 {
		t.Errorf("history = %v, want [1]", m.history)
	}
}

func TestDashboard_FailedPollShowsError(t *testing.T) {
	m := sized(t, NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, nil))

	next, _ := m.Update(snapshotMsg(poller.Snapshot{At: t0, Err: errors.New("connection refused"), Failures: 2}))
	m = next.(DashboardModel)

	if !m.statusErr {
		t.Error("expected error status")
	}
	if !strings.Contains(m.status, "connection refused") || !strings.Contains(m.status, "2 in a row") {
		t.Errorf("unexpected status %q", m.status)
	}
	if len(m.history) != 0 {
		t.Errorf("failed poll must not add to history, got %v", m.history)
	}
}

func TestDashboard_ResetKeyDispatchesReset(t *testing.T) {
	d := &recordingDispatcher{}
	m := sized(t, NewDashboard(context.Background(), "Linode", d, nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected reset command")
	}
	msg := cmd()
	if _, ok := msg.(resetDoneMsg); !ok {
		t.Fatalf("expected resetDoneMsg, got %T", msg)
	}
	if len(d.ops) != 1 {
		t.Fatalf("expected 1 dispatched op, got %d", len(d.ops))
	}
	if _, ok := d.ops[0].(poller.Reset); !ok {
		t.Errorf("expected poller.Reset, got %T", d.ops[0])
	}
}

func TestDashboard_ResetFailureShown(t *testing.T) {
	m := sized(t, NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, nil))
	next, _ := m.Update(resetDoneMsg{err: errors.New("boom")})
	m = next.(DashboardModel)
	if !m.statusErr || m.status != "reset failed: boom" {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}
}

func TestDashboard_QuitsWhenSubscriptionCloses(t *testing.T) {
	ch := make(chan poller.Snapshot)
	close(ch)
	m := NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, ch)

	msg := waitForSnapshot(ch)()
	if _, ok := msg.(subscriptionClosedMsg); !ok {
		t.Fatalf("expected subscriptionClosedMsg, got %T", msg)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDashboard_HistoryBounded(t *testing.T) {
	m := NewDashboard(context.Background(), "Linode", &recordingDispatcher{}, nil)
	for i := 0; i < maxHistory+10; i++ {
		m.apply(poller.Snapshot{At: t0})
	}
	if len(m.history) != maxHistory {
		t.Errorf("history length = %d, want %d", len(m.history), maxHistory)
	}
}

func TestAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{3 * time.Minute, "3m ago"},
		{5 * time.Hour, "5h ago"},
	}
	for _, tt := range tests {
		if got := ago(t0.Add(tt.d), t0); got != tt.want {
			t.Errorf("ago(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	if got := ago(t0, time.Time{}); got != "" {
		t.Errorf("ago(zero) = %q, want empty", got)
	}
}
