package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStatusChange  EventType = "status_change"
	EventDecodeAttempt EventType = "decode_attempt"
	EventDecodeError   EventType = "decode_error"
	EventDetect        EventType = "detect"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StatusEvent represents a state machine transition.
type StatusEvent struct {
	EventBase
	From Status `json:"from"`
	To   Status `json:"to"`
}

// DecodeEvent represents one decode attempt.
type DecodeEvent struct {
	EventBase
	Outcome  DecodeOutcome `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Still    bool          `json:"still,omitempty"`
	Err      error         `json:"-"`
}

// DetectEvent represents a validated detection handed to the sink.
type DetectEvent struct {
	EventBase
	ISBN  string `json:"isbn"`
	Raw   string `json:"raw"`
	Still bool   `json:"still,omitempty"`
}

// LifecycleHooks defines callbacks for scanner observability.
// Hooks run synchronously on the scheduling path and must not block.
type LifecycleHooks struct {
	OnStatusChange  func(context.Context, *StatusEvent)
	OnDecodeAttempt func(context.Context, *DecodeEvent)
	OnDecodeError   func(context.Context, *DecodeEvent)
	OnDetect        func(context.Context, *DetectEvent)
}
