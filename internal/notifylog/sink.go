package notifylog

import (
	"context"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
)

// Sink stores completion notifications as they are emitted by the poller.
type Sink struct {
	repo Repository
	now  func() time.Time
}

// NewSink returns a Sink writing to repo.
func NewSink(repo Repository) *Sink {
	return &Sink{repo: repo, now: time.Now}
}

// Notify records every event in events.
func (s *Sink) Notify(ctx context.Context, provider string, events []domain.Event) error {
	now := s.now()
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, FromEvent(provider, e, now))
	}
	_, err := s.repo.Save(ctx, records)
	return err
}
