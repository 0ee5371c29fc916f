package log

import (
	"log/slog"
	"os"
	"strings"
)

type options struct {
	level     slog.Level
	addSource bool
	json      bool
}

// Option configures the logger created by New.
type Option func(*options)

// WithLevel sets the minimal level from its name: debug, info, warn or error.
// Unknown names fall back to info.
func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(strings.TrimSpace(level)) {
		case "debug", "trace", "verbose", "all":
			o.level = slog.LevelDebug
		case "warn", "warning":
			o.level = slog.LevelWarn
		case "error", "fatal":
			o.level = slog.LevelError
		default:
			o.level = slog.LevelInfo
		}
	}
}

// WithSource adds the caller position to every record.
func WithSource() Option {
	return func(o *options) {
		o.addSource = true
	}
}

// WithJSON switches the output to JSON lines.
func WithJSON() Option {
	return func(o *options) {
		o.json = true
	}
}

// New creates a slog logger writing to stderr.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	handlerOptions := &slog.HandlerOptions{
		Level:     o.level,
		AddSource: o.addSource,
	}

	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(os.Stderr, handlerOptions)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOptions)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record, handy for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) {
	return len(p), nil
}
