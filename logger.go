package streamgo

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/streamgo/model"
)

// Logger wraps slog.Logger with streamgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)})),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithHandle adds a handle field to the logger.
func (l *Logger) WithHandle(h model.Handle) *Logger {
	return &Logger{
		Logger: l.Logger.With("handle", uint64(h)),
	}
}

// LogRequest logs a resource request.
func (l *Logger) LogRequest(path string, prio model.LoadPriority, enqueued bool) {
	l.Debug("resource requested",
		"path", path,
		"priority", prio.String(),
		"enqueued", enqueued,
	)
}

// LogLoad logs a load completion.
func (l *Logger) LogLoad(path string, processedBytes int64, duration time.Duration, err error) {
	if err != nil {
		l.Warn("load failed",
			"path", path,
			"duration", duration,
			"error", err,
		)
	} else {
		l.Debug("load completed",
			"path", path,
			"bytes", processedBytes,
			"duration", duration,
		)
	}
}

// LogCleanup logs a maintenance sweep.
func (l *Logger) LogCleanup(removed int) {
	if removed > 0 {
		l.Debug("idle cleanup", "removed", removed)
	}
}

// LogUpdate logs a per-frame streaming update.
func (l *Logger) LogUpdate(tracked int, duration time.Duration) {
	l.Debug("streaming update",
		"tracked", tracked,
		"duration", duration,
	)
}
