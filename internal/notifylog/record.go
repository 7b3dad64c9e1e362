// Package notifylog keeps a history of delivered completion notifications.
// It is write-mostly: the poller never reads it back.
package notifylog

import (
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
)

// Record is one delivered notification.
type Record struct {
	ID          int64     `json:"id"`
	Provider    string    `json:"provider"`
	EventID     int64     `json:"event_id"`
	Action      string    `json:"action"`
	Entity      string    `json:"entity"`
	Status      string    `json:"status"`
	Username    string    `json:"username,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	NotifiedAt  time.Time `json:"notified_at"`
}

// FromEvent builds a Record for a completed event.
func FromEvent(provider string, e domain.Event, notifiedAt time.Time) Record {
	completed := e.Updated.Time()
	if completed.IsZero() {
		completed = e.Created.Time()
	}
	return Record{
		Provider:    provider,
		EventID:     e.ID,
		Action:      e.Action,
		Entity:      e.EntityLabel(),
		Status:      string(e.Status),
		Username:    e.Username,
		CompletedAt: completed,
		NotifiedAt:  notifiedAt.UTC(),
	}
}
