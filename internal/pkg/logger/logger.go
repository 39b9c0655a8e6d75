// Package logger provides structured logging utilities.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with evaluation-specific context helpers.
type Logger struct {
	*slog.Logger
}

// New creates a new logger writing to stderr with the specified level and format.
// Stdout is reserved for evaluation results.
func New(level, format string) *Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a new logger writing to w.
func NewWithWriter(w io.Writer, level, format string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithIndex returns a logger with index context.
func (l *Logger) WithIndex(index string) *Logger {
	return &Logger{
		Logger: l.With("index", index),
	}
}

// WithTopic returns a logger with topic context.
func (l *Logger) WithTopic(topicID string) *Logger {
	return &Logger{
		Logger: l.With("topic_id", topicID),
	}
}

// WithStrategy returns a logger with retrieval strategy and query type context.
func (l *Logger) WithStrategy(strategy, queryType string) *Logger {
	return &Logger{
		Logger: l.With("strategy", strategy, "query_type", queryType),
	}
}

// WithError returns a logger with error context.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.With("error", err.Error()),
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the default logger.
func Default() *Logger {
	return New("info", "text")
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
