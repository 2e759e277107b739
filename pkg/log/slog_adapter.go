package log

import (
	"context"
	"log/slog"
)

// SlogLogger forwards events to a log/slog logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a logger that forwards to l.
// Passing nil uses slog.Default.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

// Log forwards the event as a structured slog record. Events carrying an
// error are logged at warn level, everything else at info.
func (s *SlogLogger) Log(event Event) {
	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs, slog.String("category", event.Category.String()))

	if event.Protocol != "" {
		attrs = append(attrs, slog.String("protocol", event.Protocol))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}
	if event.Node != "" {
		attrs = append(attrs, slog.String("node", event.Node))
	}
	if event.NewState != "" {
		attrs = append(attrs, slog.String("old_state", event.OldState),
			slog.String("new_state", event.NewState))
	}

	level := slog.LevelInfo
	if event.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	msg := event.Message
	if msg == "" {
		msg = event.Category.String()
	}

	s.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogLogger)(nil)
