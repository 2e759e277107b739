// Package log provides structured event logging for the simulator core.
//
// The core does not pick a logging backend. It emits typed Event values
// (session opened/closed, write rejected, engine tick skipped, adapter
// state changes) through the Logger interface, and the embedding
// application decides where they go: discard them (NoopLogger), hand them
// to log/slog (SlogLogger), or fan them out to several sinks
// (MultiLogger).
package log
