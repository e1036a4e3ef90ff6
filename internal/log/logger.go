package log

import (
	"log/slog"
	"os"
	"time"
)

// Logger is the interface for CascadeDB logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// logger wraps slog.Logger.
type logger struct {
	slog *slog.Logger
}

var defaultLogger Logger

func init() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	defaultLogger = &logger{slog: slog.New(handler)}
}

// SetDefault sets the default logger.
func SetDefault(l Logger) {
	defaultLogger = l
}

// Default returns the default logger.
func Default() Logger {
	return defaultLogger
}

// New creates a new logger with the given handler.
func New(handler slog.Handler) Logger {
	return &logger{slog: slog.New(handler)}
}

// NewTextLogger creates a new text logger at the given level.
func NewTextLogger(level slog.Level) Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &logger{slog: slog.New(handler)}
}

// NewJSONLogger creates a new JSON logger at the given level.
func NewJSONLogger(level slog.Level) Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &logger{slog: slog.New(handler)}
}

// Discard returns a logger that drops every record. Used by tests and by
// callers that pass no logger to the optimizer entry point.
func Discard() Logger {
	return &logger{slog: slog.New(slog.DiscardHandler)}
}

func (l *logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *logger) With(args ...any) Logger {
	return &logger{slog: l.slog.With(args...)}
}

// Helper functions for structured logging.

// String returns a string attribute.
func String(key, value string) slog.Attr { return slog.String(key, value) }

// Int returns an int attribute.
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

// Int64 returns an int64 attribute.
func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

// Bool returns a bool attribute.
func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

// Float64 returns a float64 attribute.
func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

// Duration returns a duration attribute.
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Any returns an any attribute.
func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Package-level convenience functions.

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
