package logger

import (
	"context"
	"log/slog"
)

// WithLogger returns a new context with the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithValues adds key-value pairs to the logger stored in the context.
func WithValues(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}

// FromContext returns a logger from the given context.
func FromContext(ctx context.Context) Logger {
	value := ctx.Value(contextKey{})
	if value == nil {
		return defaultLogger
	}
	return value.(Logger)
}

// Debug logs a message with debug level.
func Debug(ctx context.Context, msg string, tags ...any) {
	logContext(ctx, slog.LevelDebug, msg, tags)
}

// Info logs a message with info level.
func Info(ctx context.Context, msg string, tags ...any) {
	logContext(ctx, slog.LevelInfo, msg, tags)
}

// Warn logs a message with warn level.
func Warn(ctx context.Context, msg string, tags ...any) {
	logContext(ctx, slog.LevelWarn, msg, tags)
}

// Error logs a message with error level.
func Error(ctx context.Context, msg string, tags ...any) {
	logContext(ctx, slog.LevelError, msg, tags)
}

// logContext must only be called by the helpers above so that the source
// of a debug record is the helper's caller.
func logContext(ctx context.Context, level slog.Level, msg string, tags []any) {
	l := FromContext(ctx)
	if a, ok := l.(*appLogger); ok {
		a.log(helperSkip, level, msg, tags...)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(msg, tags...)
	case slog.LevelWarn:
		l.Warn(msg, tags...)
	case slog.LevelError:
		l.Error(msg, tags...)
	default:
		l.Info(msg, tags...)
	}
}

// Write writes a message with free form.
func Write(ctx context.Context, msg string) {
	FromContext(ctx).Write(msg)
}

type contextKey struct{}
