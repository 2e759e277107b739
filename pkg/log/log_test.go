package log

import (
	"sync"
	"testing"
	"time"
)

// recorder is a test sink that captures events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	m := NewMultiLogger(a, b, nil)

	m.Log(Event{Time: time.Now(), Category: CategorySession, Message: "session opened"})

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("expected both sinks to receive the event, got %d and %d", a.count(), b.count())
	}
}

func TestMultiLoggerRemove(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	m := NewMultiLogger(a, b)

	m.Remove(a)
	m.Log(Event{Category: CategoryEngine})

	if a.count() != 0 {
		t.Errorf("removed sink received %d events", a.count())
	}
	if b.count() != 1 {
		t.Errorf("remaining sink received %d events, want 1", b.count())
	}
}

func TestCategoryString(t *testing.T) {
	tests := map[Category]string{
		CategorySession:   "session",
		CategoryWrite:     "write",
		CategoryEngine:    "engine",
		CategoryState:     "state",
		CategoryTransport: "transport",
		Category(99):      "unknown",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", c, got, want)
		}
	}
}

func TestNoopLoggerIsUsableAsZeroValue(t *testing.T) {
	var l NoopLogger
	l.Log(Event{Category: CategoryWrite}) // must not panic
}
