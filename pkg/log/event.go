package log

import "time"

// Category classifies an event.
type Category uint8

const (
	// CategorySession covers client session lifecycle (opened, closed).
	CategorySession Category = iota + 1

	// CategoryWrite covers write requests, in particular rejections.
	CategoryWrite

	// CategoryEngine covers the node update engine (tick skips).
	CategoryEngine

	// CategoryState covers adapter state machine transitions.
	CategoryState

	// CategoryTransport covers transport-level conditions (frame errors,
	// accept failures, control messages).
	CategoryTransport
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySession:
		return "session"
	case CategoryWrite:
		return "write"
	case CategoryEngine:
		return "engine"
	case CategoryState:
		return "state"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Event is a single structured log event emitted by the core.
// Fields that do not apply to the category are left at their zero value.
type Event struct {
	// Time is when the event occurred.
	Time time.Time

	// Category classifies the event.
	Category Category

	// Protocol names the adapter that emitted the event ("uaspace",
	// "modbus", "mqtt"), if any.
	Protocol string

	// SessionID identifies the client session, if any.
	SessionID string

	// RemoteAddr is the peer's network address, if any.
	RemoteAddr string

	// Node is the canonical node identifier involved, if any.
	Node string

	// OldState and NewState describe a state transition
	// (CategoryState only).
	OldState string
	NewState string

	// Message is a short human-readable summary.
	Message string

	// Err carries the error that triggered the event, if any.
	Err error
}

// Logger is implemented by event sinks. Implementations must be safe for
// concurrent use; Log should return quickly or queue internally.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
