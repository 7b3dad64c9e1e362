package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/events/queue"
	"nathanbeddoewebdev/eventwatch/internal/events/scheduler"
	"nathanbeddoewebdev/eventwatch/internal/metrics"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fetchResult struct {
	batch *domain.Batch
	err   error
}

// scriptedFetcher replays results in order and records every request.
type scriptedFetcher struct {
	mu       sync.Mutex
	results  []fetchResult
	requests []domain.FetchRequest
}

func (f *scriptedFetcher) GetDisplayName() string { return "Scripted" }

func (f *scriptedFetcher) FetchEvents(ctx context.Context, req domain.FetchRequest) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.results) == 0 {
		return &domain.Batch{Events: []domain.Event{}, Watermark: req.Since}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.batch, r.err
}

type recordingSink struct {
	mu       sync.Mutex
	provider string
	events   []domain.Event
	err      error
}

func (s *recordingSink) Notify(ctx context.Context, provider string, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
	s.events = append(s.events, events...)
	return s.err
}

func ev(id int64, percent int, created time.Time) domain.Event {
	return domain.Event{
		ID:              id,
		Action:          "linode_boot",
		Status:          domain.StatusStarted,
		PercentComplete: domain.Percent(percent),
		Created:         domain.NewTimestamp(created),
	}
}

func batchOf(events ...domain.Event) fetchResult {
	return fetchResult{batch: &domain.Batch{
		Events:    events,
		Watermark: domain.NextWatermark(time.Time{}, events),
		Pages:     1,
	}}
}

type harness struct {
	svc     *Service
	fetcher *scriptedFetcher
	sched   *scheduler.Scheduler
	clock   *fakeClock
	sink    *recordingSink
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, maxKnown int, results ...fetchResult) *harness {
	t.Helper()
	h := &harness{
		fetcher: &scriptedFetcher{results: results},
		sched:   scheduler.New(scheduler.WithBaseInterval(time.Second)),
		clock:   &fakeClock{now: t0},
		sink:    &recordingSink{},
		metrics: metrics.New("scripted"),
	}
	h.svc = NewService(h.fetcher, h.sched, queue.New(), Options{
		MaxPages: 3,
		MaxKnown: maxKnown,
		Now:      h.clock.Now,
		Metrics:  h.metrics,
		Sink:     h.sink,
	})
	return h
}

// tick advances the clock to the scheduler deadline and dispatches a Tick.
func (h *harness) tick(t *testing.T) error {
	t.Helper()
	if d := h.sched.Deadline(); d.After(h.clock.Now()) {
		h.clock.Advance(d.Sub(h.clock.Now()))
	}
	return h.svc.Dispatch(context.Background(), Tick{})
}

func TestService_TrackedEventCompletes(t *testing.T) {
	created := t0.Add(-time.Minute)
	h := newHarness(t, 0,
		batchOf(ev(1, 50, created)),
		batchOf(ev(1, 100, created)),
	)

	if err := h.tick(t); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int64{1}, domain.IDs(h.svc.Snapshot().State.InProgress)); diff != "" {
		t.Errorf("in-progress mismatch (-want +got):\n%s", diff)
	}

	if err := h.tick(t); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := h.svc.Snapshot()
	if diff := cmp.Diff([]int64{1}, domain.IDs(snap.Newly)); diff != "" {
		t.Errorf("newly mismatch (-want +got):\n%s", diff)
	}
	if len(snap.State.InProgress) != 0 {
		t.Errorf("expected nothing in progress, got %v", domain.IDs(snap.State.InProgress))
	}

	if diff := cmp.Diff([]int64{1}, domain.IDs(h.sink.events)); diff != "" {
		t.Errorf("sink mismatch (-want +got):\n%s", diff)
	}
	if h.sink.provider != "Scripted" {
		t.Errorf("expected provider Scripted, got %q", h.sink.provider)
	}
	if got := testutil.ToFloat64(h.metrics.NotificationsTotal); got != 1 {
		t.Errorf("notifications = %v, want 1", got)
	}

	// Second request carries the watermark and the tracked id.
	second := h.fetcher.requests[1]
	if !second.Since.Equal(created) {
		t.Errorf("since = %v, want %v", second.Since, created)
	}
	if diff := cmp.Diff([]int64{1}, second.TrackIDs); diff != "" {
		t.Errorf("track ids mismatch (-want +got):\n%s", diff)
	}
	if second.MaxPages != 3 {
		t.Errorf("max pages = %d, want 3", second.MaxPages)
	}
}

func TestService_FailedFetchLeavesStateAlone(t *testing.T) {
	boom := errors.New("connection refused")
	h := newHarness(t, 0,
		batchOf(ev(1, 50, t0)),
		fetchResult{err: boom},
		fetchResult{err: boom},
	)

	h.tick(t)
	before := h.svc.Snapshot().State
	iteration := h.sched.Iteration()

	if err := h.tick(t); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	h.tick(t)

	snap := h.svc.Snapshot()
	if diff := cmp.Diff(before, snap.State); diff != "" {
		t.Errorf("state changed on failure (-before +after):\n%s", diff)
	}
	if !errors.Is(snap.Err, boom) {
		t.Errorf("expected snapshot error, got %v", snap.Err)
	}
	if snap.Failures != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", snap.Failures)
	}
	if h.sched.Iteration() != iteration {
		t.Errorf("iteration changed on failure: %d -> %d", iteration, h.sched.Iteration())
	}
	if got := testutil.ToFloat64(h.metrics.PollsTotal.WithLabelValues("error")); got != 2 {
		t.Errorf("error polls = %v, want 2", got)
	}

	// The next success clears the failure count.
	h.tick(t)
	if snap := h.svc.Snapshot(); snap.Err != nil || snap.Failures != 0 {
		t.Errorf("expected recovery, got err=%v failures=%d", snap.Err, snap.Failures)
	}
}

func TestService_TickBeforeDeadlineDoesNotFetch(t *testing.T) {
	h := newHarness(t, 0)

	h.svc.Dispatch(context.Background(), Tick{})
	h.svc.Dispatch(context.Background(), Tick{})
	h.clock.Advance(500 * time.Millisecond)
	h.svc.Dispatch(context.Background(), Tick{})

	if len(h.fetcher.requests) != 1 {
		t.Errorf("expected 1 fetch, got %d", len(h.fetcher.requests))
	}
}

func TestService_QuietPollsBackOff(t *testing.T) {
	h := newHarness(t, 0)

	for i := 0; i < 4; i++ {
		h.tick(t)
	}
	if h.sched.Iteration() != 5 {
		t.Errorf("expected iteration 5 after 4 quiet polls, got %d", h.sched.Iteration())
	}
}

func TestService_FailedEventStopsTrackingAndBacksOff(t *testing.T) {
	created := t0.Add(-time.Minute)
	failed := ev(1, 100, created)
	failed.Status = domain.StatusFailed
	failed.Message = "action_failed: volume busy"

	h := newHarness(t, 0,
		batchOf(ev(1, 40, created)),
		batchOf(failed),
	)

	for i := 0; i < 4; i++ {
		if err := h.tick(t); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i+1, err)
		}
	}

	if diff := cmp.Diff([]int64{1}, h.fetcher.requests[1].TrackIDs); diff != "" {
		t.Errorf("track ids mismatch (-want +got):\n%s", diff)
	}
	for _, req := range h.fetcher.requests[2:] {
		if len(req.TrackIDs) != 0 {
			t.Errorf("expected no tracked ids after failure, got %v", req.TrackIDs)
		}
	}

	if diff := cmp.Diff([]domain.Event{failed}, h.sink.events); diff != "" {
		t.Errorf("sink mismatch (-want +got):\n%s", diff)
	}
	if h.sched.Iteration() != 4 {
		t.Errorf("expected iteration 4 after the failure and two quiet polls, got %d", h.sched.Iteration())
	}
}

func TestService_ResetOp(t *testing.T) {
	h := newHarness(t, 0)
	for i := 0; i < 3; i++ {
		h.tick(t)
	}

	if err := h.svc.Dispatch(context.Background(), Reset{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.sched.Iteration() != 1 {
		t.Errorf("expected iteration 1, got %d", h.sched.Iteration())
	}
	if want := h.clock.Now().Add(time.Second); !h.sched.Deadline().Equal(want) {
		t.Errorf("deadline = %v, want %v", h.sched.Deadline(), want)
	}
	if got := testutil.ToFloat64(h.metrics.ResetsTotal); got != 1 {
		t.Errorf("resets = %v, want 1", got)
	}
}

func TestService_MergeBatchOp(t *testing.T) {
	h := newHarness(t, 0)

	err := h.svc.Dispatch(context.Background(), MergeBatch{Batch: batchOf(ev(4, 10, t0), ev(4, 20, t0)).batch})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.fetcher.requests) != 0 {
		t.Errorf("expected no fetch, got %d", len(h.fetcher.requests))
	}

	known := h.svc.Known()
	if len(known) != 1 || *known[0].PercentComplete != 20 {
		t.Errorf("expected one known event at 20%%, got %+v", known)
	}
	if !h.svc.Watermark().Equal(t0) {
		t.Errorf("watermark = %v, want %v", h.svc.Watermark(), t0)
	}

	if err := h.svc.Dispatch(context.Background(), MergeBatch{}); err == nil {
		t.Error("expected error for nil batch")
	}
}

type bogusOp struct{}

func (bogusOp) op() {}

func TestService_UnknownOp(t *testing.T) {
	h := newHarness(t, 0)
	if err := h.svc.Dispatch(context.Background(), bogusOp{}); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestService_WatermarkNeverRegresses(t *testing.T) {
	h := newHarness(t, 0,
		batchOf(ev(2, 100, t0.Add(time.Minute))),
		batchOf(ev(1, 100, t0)),
	)

	h.tick(t)
	h.tick(t)

	if want := t0.Add(time.Minute); !h.svc.Watermark().Equal(want) {
		t.Errorf("watermark = %v, want %v", h.svc.Watermark(), want)
	}
}

func TestService_EvictionKeepsInProgress(t *testing.T) {
	h := newHarness(t, 2,
		batchOf(
			ev(1, 30, t0.Add(-time.Hour)), // oldest, but still running
			ev(2, 100, t0.Add(-50*time.Minute)),
			ev(3, 100, t0.Add(-40*time.Minute)),
			ev(4, 100, t0.Add(-30*time.Minute)),
		),
	)

	h.tick(t)

	if diff := cmp.Diff([]int64{4, 1}, domain.IDs(h.svc.Known())); diff != "" {
		t.Errorf("known mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(h.metrics.KnownEvents); got != 2 {
		t.Errorf("known gauge = %v, want 2", got)
	}
}

func TestService_SubscribersDropWhenSlow(t *testing.T) {
	h := newHarness(t, 0,
		batchOf(ev(1, 10, t0)),
		batchOf(ev(1, 50, t0)),
		batchOf(ev(1, 100, t0)),
	)

	ch, unsubscribe := h.svc.Subscribe(1)
	h.tick(t)
	h.tick(t)
	h.tick(t)

	snap := <-ch
	if diff := cmp.Diff([]int64{1}, domain.IDs(snap.State.InProgress)); diff != "" {
		t.Errorf("expected first snapshot to be kept (-want +got):\n%s", diff)
	}
	select {
	case extra := <-ch:
		t.Errorf("expected later snapshots to be dropped, got %+v", extra)
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestService_SinkErrorDoesNotFailPoll(t *testing.T) {
	h := newHarness(t, 0,
		batchOf(ev(1, 10, t0)),
		batchOf(ev(1, 100, t0)),
	)
	h.sink.err = errors.New("disk full")

	h.tick(t)
	if err := h.tick(t); err != nil {
		t.Fatalf("expected sink errors to be swallowed, got %v", err)
	}
	if len(h.svc.Snapshot().Newly) != 1 {
		t.Error("expected completion to be reported despite sink error")
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, 0)
	h.svc.now = time.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Run(ctx, time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}

	h.fetcher.mu.Lock()
	defer h.fetcher.mu.Unlock()
	if len(h.fetcher.requests) == 0 {
		t.Error("expected at least one fetch")
	}
}
