package corestore

// Logger defines the interface for dispatch-loop and autorun diagnostics.
// It uses structured key-value logging compatible with slog, zap, logrus,
// and similar libraries.
//
// Example implementation using go.uber.org/zap is shipped in the sibling
// corestore/zaplogger package.
type Logger interface {
	// Info logs a normal operational event, e.g. a completed reduction.
	Info(msg string, args ...any)

	// Error logs an error condition, e.g. a side-effect handler panic the
	// worker pool isolates, an event handler with an unsupported
	// signature, or a reducer error that stopped the dispatch loop.
	Error(msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(msg string, args ...any)

	// Debug logs fine-grained diagnostics, typically disabled in
	// production.
	Debug(msg string, args ...any)
}

// NopLogger discards everything. It is the default logger for a store
// constructed without WithLogger, and is convenient in tests.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
