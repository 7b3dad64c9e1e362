package domain

import (
	"slices"
	"strconv"
)

// Status is the server-reported lifecycle state of an account event.
type Status string

// Event status values reported by the events API.
const (
	StatusScheduled    Status = "scheduled"
	StatusStarted      Status = "started"
	StatusFinished     Status = "finished"
	StatusNotification Status = "notification"
	StatusFailed       Status = "failed"
)

// Valid reports whether s is one of the known event statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusStarted, StatusFinished, StatusNotification, StatusFailed:
		return true
	}
	return false
}

// Entity is a reference to the resource an event acted upon. Events never
// own the entity; it may already be gone by the time the event is read.
type Entity struct {
	ID    EntityID `json:"id"`
	Label string   `json:"label"`
	Type  string   `json:"type"`
	URL   string   `json:"url"`
}

// EntityID holds an entity identifier. Most entities have integer IDs but
// some (e.g. domains, tickets) use strings, so both JSON forms are accepted.
type EntityID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*id = EntityID(s)
		return nil
	}
	*id = EntityID(data)
	return nil
}

// Event represents one asynchronous account action (e.g. "linode_reboot",
// "disk_delete") and its progress as reported by the provider.
type Event struct {
	// ID is unique per account and increases monotonically.
	ID int64 `json:"id"`

	// Action names the operation type.
	Action string `json:"action"`

	Status Status `json:"status"`

	// PercentComplete is 0-100, or nil when progress does not apply.
	PercentComplete *int `json:"percent_complete"`

	Created Timestamp `json:"created"`
	Updated Timestamp `json:"updated"`

	Entity *Entity `json:"entity"`

	// Read and Seen are user acknowledgement flags. The poller never
	// changes them.
	Read bool `json:"read"`
	Seen bool `json:"seen"`

	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Percent returns a pointer to p, for building events in code.
func Percent(p int) *int {
	return &p
}

// IsInProgress reports whether the event is still running: it has a
// progress value and that value is below 100. Events without a progress
// value are never in progress.
func IsInProgress(e Event) bool {
	return e.PercentComplete != nil && *e.PercentComplete < 100
}

// IsComplete reports whether the event has reached 100%.
func IsComplete(e Event) bool {
	return e.PercentComplete != nil && *e.PercentComplete == 100
}

// EntityLabel returns a short human-readable description of the event's
// entity, or "-" when there is none.
func (e Event) EntityLabel() string {
	if e.Entity == nil {
		return "-"
	}
	switch {
	case e.Entity.Label != "":
		return e.Entity.Label
	case e.Entity.ID != "":
		return e.Entity.Type + ":" + string(e.Entity.ID)
	}
	return "-"
}

// SortByCreatedDesc sorts events newest first. Events created in the same
// second are ordered by descending ID.
func SortByCreatedDesc(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := b.Created.Time().Compare(a.Created.Time()); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

// IDs returns the IDs of the given events, in order.
func IDs(events []Event) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
