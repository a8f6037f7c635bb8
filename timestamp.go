package chatsdk

import (
	"fmt"
	"time"
)

// timestampLayout is the wire format for all timestamps: ISO-8601 with
// millisecond fractional seconds. Encoding always emits this layout so that
// decode(encode(t)) round-trips losslessly to millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a wire timestamp. It wraps time.Time with the protocol's
// ISO-8601 fractional-second encoding.
type Timestamp struct {
	time.Time
}

// NewTimestamp creates a Timestamp truncated to millisecond precision in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. It accepts any RFC 3339
// fractional-second precision the server emits.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp is not a JSON string: %s", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

// Equal reports whether two timestamps denote the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

// After reports whether t is later than other.
func (t Timestamp) After(other Timestamp) bool {
	return t.Time.After(other.Time)
}

// Before reports whether t is earlier than other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Time.Before(other.Time)
}
