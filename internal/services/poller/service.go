// Package poller wires an events fetcher, the poll scheduler and the
// completion queue into one loop.
package poller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/events/queue"
	"nathanbeddoewebdev/eventwatch/internal/events/scheduler"
	"nathanbeddoewebdev/eventwatch/internal/logger"
	"nathanbeddoewebdev/eventwatch/internal/metrics"

	"go.uber.org/zap"
)

// DefaultMaxKnown bounds the known-event window.
const DefaultMaxKnown = 500

// DefaultResolution is how often Run checks whether a poll is due.
const DefaultResolution = 250 * time.Millisecond

// Sink receives completion notifications. Errors are logged, never retried.
type Sink interface {
	Notify(ctx context.Context, provider string, events []domain.Event) error
}

// Snapshot is what subscribers see after every poll.
type Snapshot struct {
	State queue.State

	// Newly holds the events that completed in this poll.
	Newly []domain.Event

	At        time.Time
	Watermark time.Time
	Iteration int

	// Err is the fetch error when the poll failed. State is then unchanged.
	Err error

	// Failures counts consecutive failed polls.
	Failures int
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	ProviderName string
	MaxPages     int
	MaxKnown     int
	Now          func() time.Time
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
	Sink         Sink
}

// Service owns the known-event window and runs polls on behalf of the
// scheduler. All methods are safe for concurrent use.
type Service struct {
	fetcher domain.Fetcher
	sched   *scheduler.Scheduler
	queue   *queue.Queue

	provider string
	maxPages int
	maxKnown int
	now      func() time.Time
	log      *logger.Logger
	metrics  *metrics.Metrics
	sink     Sink

	mu        sync.Mutex
	known     map[int64]domain.Event
	watermark time.Time
	failures  int
	last      Snapshot

	subsMu sync.Mutex
	subs   map[chan Snapshot]struct{}
}

// NewService creates a poller. sched and q are owned by the caller, which
// may keep sched to reset it from elsewhere.
func NewService(fetcher domain.Fetcher, sched *scheduler.Scheduler, q *queue.Queue, opts Options) *Service {
	s := &Service{
		fetcher:  fetcher,
		sched:    sched,
		queue:    q,
		provider: opts.ProviderName,
		maxPages: opts.MaxPages,
		maxKnown: opts.MaxKnown,
		now:      opts.Now,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		known:    make(map[int64]domain.Event),
		subs:     make(map[chan Snapshot]struct{}),
	}
	if s.provider == "" && fetcher != nil {
		s.provider = fetcher.GetDisplayName()
	}
	if s.maxPages <= 0 {
		s.maxPages = 1
	}
	if s.maxKnown <= 0 {
		s.maxKnown = DefaultMaxKnown
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.Named("poller").With(zap.String("provider", s.provider))
	s.last = Snapshot{State: q.State(), Iteration: sched.Iteration()}
	return s
}

// Dispatch applies op.
func (s *Service) Dispatch(ctx context.Context, op Op) error {
	switch op := op.(type) {
	case Reset:
		s.sched.Reset(s.now())
		s.log.Debug("scheduler reset", zap.Time("deadline", s.sched.Deadline()))
		if s.metrics != nil {
			s.metrics.ResetsTotal.Inc()
			s.metrics.BackoffIteration.Set(1)
		}
		return nil
	case Tick:
		_, err := s.sched.Tick(ctx, s.now(), s.poll)
		return err
	case MergeBatch:
		if op.Batch == nil {
			return errors.New("poller: nil batch")
		}
		s.merge(ctx, op.Batch)
		return nil
	default:
		return fmt.Errorf("poller: unknown op %T", op)
	}
}

// Run dispatches Tick every resolution until ctx is done. Poll failures are
// reported to subscribers and logged; they never stop the loop.
func (s *Service) Run(ctx context.Context, resolution time.Duration) error {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		if err := s.Dispatch(ctx, Tick{}); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Subscribe returns a channel that receives a Snapshot after every poll.
// A subscriber that falls more than buffer snapshots behind misses the
// extra ones. Call the returned func to unsubscribe.
func (s *Service) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

// Snapshot returns the most recent snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Watermark returns the creation time of the newest event seen so far.
func (s *Service) Watermark() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// Known returns the events in the known-event window, newest first.
func (s *Service) Known() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownLocked()
}

func (s *Service) knownLocked() []domain.Event {
	events := make([]domain.Event, 0, len(s.known))
	for _, e := range s.known {
		events = append(events, e)
	}
	domain.SortByCreatedDesc(events)
	return events
}

// poll is the scheduler's fetch function.
func (s *Service) poll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	req := domain.FetchRequest{
		Since:    s.watermark,
		MaxPages: s.maxPages,
		TrackIDs: s.queue.Tracking(),
	}
	s.mu.Unlock()

	start := s.now()
	batch, err := s.fetcher.FetchEvents(ctx, req)
	elapsed := s.now().Sub(start)

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPoll(err, elapsed, 0, 0)
		}
		if ctx.Err() != nil {
			return false, err
		}

		s.mu.Lock()
		s.failures++
		snap := s.last
		snap.Newly = nil
		snap.At = s.now()
		snap.Err = err
		snap.Failures = s.failures
		snap.Iteration = s.sched.Iteration()
		s.last = snap
		s.mu.Unlock()

		s.log.Warn("fetch failed", zap.Error(err), zap.Int("consecutive_failures", snap.Failures))
		s.publish(snap)
		return false, err
	}

	if s.metrics != nil {
		s.metrics.RecordPoll(nil, elapsed, len(batch.Events), batch.Pages)
	}
	fresh, inProgress := s.merge(ctx, batch)
	return fresh > 0 || inProgress > 0, nil
}

// merge folds batch into the known events and re-derives the queue state.
// It returns how many ids were seen for the first time and how many events
// are in progress afterwards.
func (s *Service) merge(ctx context.Context, batch *domain.Batch) (int, int) {
	events := queue.UniqueEvents(batch.Events)

	s.mu.Lock()
	fresh := 0
	for _, e := range events {
		if _, ok := s.known[e.ID]; !ok {
			fresh++
		}
		s.known[e.ID] = e
	}
	evicted := s.evictLocked()

	state, newly := s.queue.Update(s.knownLocked())
	if batch.Watermark.After(s.watermark) {
		s.watermark = batch.Watermark
	}
	s.failures = 0

	snap := Snapshot{
		State:     state,
		Newly:     newly,
		At:        s.now(),
		Watermark: s.watermark,
		Iteration: s.sched.Iteration(),
	}
	s.last = snap
	knownCount := len(s.known)
	s.mu.Unlock()

	s.log.Debug("batch merged",
		zap.Int("events", len(events)),
		zap.Int("new", fresh),
		zap.Int("evicted", evicted),
		zap.Int("in_progress", len(state.InProgress)),
		zap.Int("completed", len(newly)),
	)
	if s.metrics != nil {
		s.metrics.InProgress.Set(float64(len(state.InProgress)))
		s.metrics.KnownEvents.Set(float64(knownCount))
		s.metrics.NotificationsTotal.Add(float64(len(newly)))
	}

	if len(newly) > 0 {
		for _, e := range newly {
			s.log.Info("event completed",
				zap.Int64("id", e.ID),
				zap.String("action", e.Action),
				zap.String("entity", e.EntityLabel()),
				zap.String("status", string(e.Status)),
			)
		}
		if s.sink != nil {
			if err := s.sink.Notify(ctx, s.provider, newly); err != nil {
				s.log.Error("notification sink failed", zap.Error(err))
			}
		}
	}

	s.publish(snap)
	return fresh, len(state.InProgress)
}

// evictLocked trims the known window to maxKnown, dropping the oldest
// events first. In-progress events are never dropped.
func (s *Service) evictLocked() int {
	if len(s.known) <= s.maxKnown {
		return 0
	}

	candidates := make([]domain.Event, 0, len(s.known))
	for _, e := range s.known {
		if !domain.IsInProgress(e) {
			candidates = append(candidates, e)
		}
	}
	domain.SortByCreatedDesc(candidates)
	slices.Reverse(candidates)

	evicted := 0
	for _, e := range candidates {
		if len(s.known) <= s.maxKnown {
			break
		}
		delete(s.known, e.ID)
		evicted++
	}
	return evicted
}

func (s *Service) publish(snap Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.log.Debug("subscriber lagging, snapshot dropped")
		}
	}
}
