package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is a timestamped, ordered payload.
type Envelope[T any] struct {
	Timestamp time.Time
	Payload   []T
}

// wire is the serialized form. Pointers distinguish absent fields from zero values.
type wire struct {
	Timestamp *int64          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New captures payload at now, truncated to the millisecond precision used on the wire.
// A nil payload is stored as an empty one, which is how it decodes.
func New[T any](payload []T, now time.Time) Envelope[T] {
	if payload == nil {
		payload = []T{}
	}
	return Envelope[T]{
		Timestamp: time.UnixMilli(now.UnixMilli()).UTC(),
		Payload:   payload,
	}
}

// Fresh reports whether the envelope is younger than ttl at now.
func (e Envelope[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// Age returns how long ago the payload was captured.
func (e Envelope[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Encode serializes an envelope. A nil payload is written as an empty list.
func Encode[T any](e Envelope[T]) (string, error) {
	payload := e.Payload
	if payload == nil {
		payload = []T{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}
	ts := e.Timestamp.UnixMilli()
	data, err := json.Marshal(wire{Timestamp: &ts, Payload: body})
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}
	return string(data), nil
}

// Decode parses raw into an envelope. It returns false for empty input,
// malformed JSON, a wrong shape, or a missing timestamp or payload.
func Decode[T any](raw string) (Envelope[T], bool) {
	if raw == "" {
		return Envelope[T]{}, false
	}
	var w wire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Envelope[T]{}, false
	}
	if w.Timestamp == nil || len(w.Payload) == 0 || w.Payload[0] != '[' {
		return Envelope[T]{}, false
	}
	var payload []T
	if err := json.Unmarshal(w.Payload, &payload); err != nil {
		return Envelope[T]{}, false
	}
	return Envelope[T]{
		Timestamp: time.UnixMilli(*w.Timestamp).UTC(),
		Payload:   payload,
	}, true
}
