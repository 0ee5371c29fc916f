package log

import (
	"log"
	"log/slog"
	"strings"
)

type logAdapter struct {
	slog *slog.Logger
}

// NewLogAdapter bridges consumers of the standard *log.Logger (chi request
// logger, http.Server error log) to slog.
func NewLogAdapter(logger *slog.Logger) *log.Logger {
	return log.New(&logAdapter{slog: logger}, "", 0)
}

func (a *logAdapter) Write(p []byte) (n int, err error) {
	a.slog.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
