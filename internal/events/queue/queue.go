// Package queue turns the stream of polled account events into the two
// lists the notification layer needs: events still in progress, and
// events that were watched while in progress and have since completed.
//
// The reducer is a pure function over the full set of known events and the
// previous state. A completion is reported only when the event was tracked
// as in progress on the previous update; events that are already complete
// the first time they are seen (for example after a restart) are treated as
// history and never produce a notification.
package queue

import (
	"slices"
	"sync"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
)

// State is the reducer output.
type State struct {
	// InProgress holds every known event below 100%, in input order.
	InProgress []domain.Event `json:"in_progress"`

	// Completed accumulates one entry per event observed transitioning
	// from in progress to complete.
	Completed []domain.Event `json:"completed"`
}

// Clone returns a deep copy of the slices in s.
func (s State) Clone() State {
	return State{
		InProgress: slices.Clone(s.InProgress),
		Completed:  slices.Clone(s.Completed),
	}
}

// Reduce computes the next state from prev and the full list of known
// events. It returns the next state and the events that completed in this
// step.
//
//  1. inProgress = events that are in progress
//  2. tracked    = ids of prev.InProgress
//  3. newly      = events whose id is tracked and that are now at 100%
//  4. next       = {inProgress, prev.Completed ++ newly}
func Reduce(prev State, events []domain.Event) (State, []domain.Event) {
	inProgress := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if domain.IsInProgress(e) {
			inProgress = append(inProgress, e)
		}
	}

	tracked := make(map[int64]struct{}, len(prev.InProgress))
	for _, e := range prev.InProgress {
		tracked[e.ID] = struct{}{}
	}

	var newly []domain.Event
	for _, e := range events {
		if _, ok := tracked[e.ID]; ok && domain.IsComplete(e) {
			newly = append(newly, e)
		}
	}

	completed := make([]domain.Event, 0, len(prev.Completed)+len(newly))
	completed = append(completed, prev.Completed...)
	completed = append(completed, newly...)

	return State{InProgress: inProgress, Completed: completed}, newly
}

// Queue holds reducer state between polls. It is safe for concurrent use.
type Queue struct {
	mu           sync.RWMutex
	state        State
	notified     map[int64]struct{}
	maxCompleted int
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxCompleted caps the number of completed events retained in state.
// The oldest entries are dropped first. Dropped ids are still remembered,
// so they are never reported twice. n <= 0 means no cap.
func WithMaxCompleted(n int) Option {
	return func(q *Queue) { q.maxCompleted = n }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		state: State{
			InProgress: []domain.Event{},
			Completed:  []domain.Event{},
		},
		notified: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Update folds the full list of known events into the queue and returns the
// new state together with the events that completed in this step. Each
// event id is reported as completed at most once over the queue's lifetime.
func (q *Queue) Update(events []domain.Event) (State, []domain.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next, newly := Reduce(q.state, events)

	// Reduce appends every tracked completion; drop ids already reported
	// in an earlier step.
	if len(newly) > 0 {
		fresh := newly[:0:0]
		for _, e := range newly {
			if _, seen := q.notified[e.ID]; seen {
				continue
			}
			q.notified[e.ID] = struct{}{}
			fresh = append(fresh, e)
		}
		next.Completed = append(next.Completed[:len(q.state.Completed)], fresh...)
		newly = fresh
	}

	if q.maxCompleted > 0 && len(next.Completed) > q.maxCompleted {
		next.Completed = slices.Clone(next.Completed[len(next.Completed)-q.maxCompleted:])
	}

	q.state = next
	return next.Clone(), slices.Clone(newly)
}

// State returns a snapshot of the current state.
func (q *Queue) State() State {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state.Clone()
}

// Tracking reports the ids currently considered in progress.
func (q *Queue) Tracking() []int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return domain.IDs(q.state.InProgress)
}
