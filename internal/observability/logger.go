// Package observability provides structured logging for the storage core.
//
// Logger wraps log/slog with a persistent component field so every
// subsystem's output carries its origin. Per-operation counters are not
// here: the store package owns its metric registry per instance.
package observability

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with persistent component context.
type Logger struct {
	inner     *slog.Logger
	component string
}

// NewLogger creates a structured logger for a given component.
// Output defaults to os.Stderr if w is nil.
func NewLogger(component string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &Logger{
		inner:     slog.New(handler),
		component: component,
	}
}

// NewLoggerWithHandler creates a logger with a custom slog handler.
func NewLoggerWithHandler(component string, h slog.Handler) *Logger {
	return &Logger{
		inner:     slog.New(h),
		component: component,
	}
}

// With returns a new Logger with an additional persistent field.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{
		inner:     l.inner.With(slog.Any(key, value)),
		component: l.component,
	}
}

// attrs prepends the component name to the arguments.
func (l *Logger) attrs(args []any) []any {
	return append([]any{slog.String("component", l.component)}, args...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, l.attrs(args)...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, l.attrs(args)...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, l.attrs(args)...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, l.attrs(args)...)
}

// Op logs a completed storage operation with its outcome and duration.
func (l *Logger) Op(name string, d time.Duration, err error) {
	args := []any{
		slog.String("component", l.component),
		slog.String("op", name),
		slog.Duration("duration", d),
	}
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
		l.inner.Debug("operation failed", args...)
		return
	}
	l.inner.Debug("operation complete", args...)
}

// Component returns the component name associated with this logger.
func (l *Logger) Component() string {
	return l.component
}
