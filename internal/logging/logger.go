// Package logging wraps log/slog with the field names used across the
// clustering service.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with service-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSON creates a Logger that writes JSON lines to w.
func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewText creates a Logger that writes human-readable text to w.
func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop creates a Logger that discards all output.
func Noop() *Logger {
	return New(slog.DiscardHandler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
	return level, nil
}

// FromConfig builds a Logger writing to w in the given format ("text" or
// "json") at the given level.
func FromConfig(w io.Writer, format, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewText(w, lvl), nil
	case "json":
		return NewJSON(w, lvl), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
}

// WithRequestID adds a request_id field.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("request_id", id)}
}

// WithDomain adds a domain field.
func (l *Logger) WithDomain(domain string) *Logger {
	return &Logger{Logger: l.Logger.With("domain", domain)}
}

// RunSummary is what LogRun reports about a finished clustering run.
type RunSummary struct {
	Points   int
	Eps      float64
	MinPts   int
	Fallback bool
	Clusters int
	Outliers int
}

// LogRun logs the outcome of one clustering run.
func (l *Logger) LogRun(ctx context.Context, s RunSummary, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"points", s.Points,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	if s.Fallback {
		l.WarnContext(ctx, "no minPts candidate produced more than one cluster, using fallback",
			"min_pts", s.MinPts,
		)
	}
	l.InfoContext(ctx, "clustering completed",
		"points", s.Points,
		"eps", s.Eps,
		"min_pts", s.MinPts,
		"clusters", s.Clusters,
		"outliers", s.Outliers,
		"elapsed", elapsed,
	)
}

// LogSnapshot logs a visualization snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.WarnContext(ctx, "snapshot failed",
			"filename", filename,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "snapshot saved",
		"filename", filename,
	)
}
