package log

import "sync"

// MultiLogger fans events out to several sinks.
// Sinks can be added and removed while events are flowing.
type MultiLogger struct {
	mu    sync.RWMutex
	sinks []Logger
}

// NewMultiLogger creates a multi-logger with the given initial sinks.
// Nil sinks are skipped.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add registers an additional sink.
func (m *MultiLogger) Add(sink Logger) {
	if sink == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Remove unregisters a previously added sink.
func (m *MultiLogger) Remove(sink Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sinks {
		if s == sink {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			return
		}
	}
}

// Log delivers the event to every sink in registration order.
func (m *MultiLogger) Log(event Event) {
	m.mu.RLock()
	sinks := make([]Logger, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.RUnlock()

	for _, s := range sinks {
		s.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
