// Package log provides structured logging for the NOMAD transport core. It
// wraps log/slog with per-subsystem child loggers so each component tags its
// own records without threading a logger field through every call site.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with NOMAD subsystem context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. Useful
// for tests or for routing records to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger tagged with the "module" attribute name,
// optionally carrying additional key-value context set once at construction
// time. Every subsystem logger in this tree is built exactly this way —
// transport.Conn and transport.Socket each call it once to get their own
// contextual logger ("transport", "socket"), and nomad-client/nomad-server
// call it once per process ("nomad-client", "nomad-server") — so Module
// folds in the extra-attribute case directly rather than requiring a second
// chained call for it.
func (l *Logger) Module(name string, args ...any) *Logger {
	return &Logger{inner: l.inner.With(append([]any{"module", name}, args...)...)}
}

// Debug logs at LevelDebug. Events derived from unauthenticated input (silent
// drops) must never log above this level.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
