// Package scheduler decides when the next events poll is due.
//
// A Scheduler tracks a deadline and a backoff multiplier. Every poll pushes
// the deadline out by base*multiplier; quiet polls grow the multiplier (up
// to a cap) and polls that see activity snap it back to 1. Any part of the
// application that mutates account state calls Reset so the next poll
// happens one base interval from now.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// DefaultBaseInterval is the poll interval at backoff level 1.
const DefaultBaseInterval = 2 * time.Second

// DefaultMaxIteration bounds the backoff multiplier. At the default base
// interval the slowest poll rate is one request every 32 s.
const DefaultMaxIteration = 16

// FetchFunc performs one poll. active reports whether the poll saw
// something worth watching closely (new events or events still in
// progress); an active poll resets the backoff.
type FetchFunc func(ctx context.Context) (active bool, err error)

// Scheduler is safe for concurrent use. At most one fetch runs at a time.
type Scheduler struct {
	mu           sync.Mutex
	base         time.Duration
	maxIteration int
	deadline     time.Time
	iteration    int
	inFlight     bool
	resets       uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBaseInterval sets the interval used at backoff level 1.
func WithBaseInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.base = d
		}
	}
}

// WithMaxIteration caps the backoff multiplier.
func WithMaxIteration(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxIteration = n
		}
	}
}

// New returns a scheduler whose first poll is due immediately.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		base:         DefaultBaseInterval,
		maxIteration: DefaultMaxIteration,
		iteration:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset schedules the next poll one base interval after now and drops the
// backoff multiplier to 1.
func (s *Scheduler) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline = now.Add(s.base)
	s.iteration = 1
	s.resets++
}

// Due reports whether a poll should start at now.
func (s *Scheduler) Due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueLocked(now)
}

func (s *Scheduler) dueLocked(now time.Time) bool {
	return !s.inFlight && !now.Before(s.deadline)
}

// Deadline returns the time after which the next poll is due.
func (s *Scheduler) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// Iteration returns the current backoff multiplier.
func (s *Scheduler) Iteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iteration
}

// Tick runs fetch if a poll is due at now and none is in flight. It
// reports whether fetch ran, and fetch's error.
//
// The next deadline is set before fetch starts. On success the multiplier
// grows (or returns to 1 if the poll was active). On failure it is left
// alone, so the retry happens at the same backoff level.
func (s *Scheduler) Tick(ctx context.Context, now time.Time, fetch FetchFunc) (bool, error) {
	s.mu.Lock()
	if !s.dueLocked(now) {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight = true
	s.deadline = now.Add(s.base * time.Duration(s.iteration))
	resets := s.resets
	s.mu.Unlock()

	active, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return true, err
	}
	if s.resets != resets {
		// Reset ran while fetching; its backoff level wins.
		return true, nil
	}
	if active {
		s.iteration = 1
	} else if s.iteration < s.maxIteration {
		s.iteration++
	}
	return true, nil
}
