package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the wire format used by the events API: ISO 8601
// without a zone offset. Values are always UTC.
const TimestampLayout = "2006-01-02T15:04:05"

// Timestamp is a UTC point in time encoded without a zone offset.
type Timestamp struct {
	t time.Time
}

// NewTimestamp converts t to UTC and truncates it to whole seconds, which is
// the precision the API works in.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// Time returns the underlying time value.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// Equal reports whether ts and other represent the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// After reports whether ts is later than other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

// String formats the timestamp in TimestampLayout, or "" for the zero value.
func (ts Timestamp) String() string {
	if ts.t.IsZero() {
		return ""
	}
	return ts.t.UTC().Format(TimestampLayout)
}

// MarshalJSON encodes the timestamp as a string, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(ts.String())), nil
}

// UnmarshalJSON decodes either the offset-less API layout or RFC 3339.
// null and "" decode to the zero timestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp: expected string, got %s", data)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// ParseTimestamp parses s in TimestampLayout or RFC 3339.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	if v, err := time.ParseInLocation(TimestampLayout, s, time.UTC); err == nil {
		return Timestamp{t: v}, nil
	}
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp: cannot parse %q", s)
	}
	return NewTimestamp(v), nil
}
