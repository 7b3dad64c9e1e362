package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FetchRequest describes one poll of the events feed.
type FetchRequest struct {
	// Since is the exclusive lower bound on event creation time. The zero
	// value means "no bound" (first load).
	Since time.Time

	// MaxPages caps how many pages are walked in one fetch. Values <= 0
	// mean a single page.
	MaxPages int

	// TrackIDs lists events that were in progress on the previous poll and
	// must be refetched even though they were created before Since.
	TrackIDs []int64
}

// Batch is the result of a successful fetch.
type Batch struct {
	// Events are ordered newest first. They may contain duplicate IDs when
	// a record moved between pages while the fetch was running.
	Events []Event

	// Watermark is the latest creation time seen, or the request's Since
	// when no newer event arrived. It never moves backwards.
	Watermark time.Time

	// Pages is the number of pages that were read.
	Pages int
}

// Fetcher retrieves account events from a provider.
type Fetcher interface {
	// GetDisplayName returns the human-readable provider name.
	GetDisplayName() string

	// FetchEvents returns all events matching req. On any error no events
	// are returned: a partially read set of pages is discarded.
	FetchEvents(ctx context.Context, req FetchRequest) (*Batch, error)
}

// NextWatermark returns the maximum of since and the creation times of
// events.
func NextWatermark(since time.Time, events []Event) time.Time {
	w := since
	for _, e := range events {
		if c := e.Created.Time(); c.After(w) {
			w = c
		}
	}
	return w
}

// ErrorReason is one entry of an API error envelope.
type ErrorReason struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// APIError is a non-2xx response that carried a structured error body.
// Unwrap returns the sentinel matching the status code, if any, so callers
// can still use errors.Is.
type APIError struct {
	StatusCode int
	Reasons    []ErrorReason
	sentinel   error
}

// NewAPIError builds an APIError that unwraps to sentinel (which may be nil).
func NewAPIError(status int, reasons []ErrorReason, sentinel error) *APIError {
	return &APIError{StatusCode: status, Reasons: reasons, sentinel: sentinel}
}

func (e *APIError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		if r.Field != "" {
			parts = append(parts, r.Field+": "+r.Reason)
			continue
		}
		parts = append(parts, r.Reason)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

func (e *APIError) Unwrap() error {
	return e.sentinel
}
