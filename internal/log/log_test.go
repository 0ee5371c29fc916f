package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithLevel(t *testing.T) {
	testcases := []struct {
		Name     string
		Level    string
		Expected slog.Level
	}{
		{Name: "debug", Level: "debug", Expected: slog.LevelDebug},
		{Name: "info", Level: "info", Expected: slog.LevelInfo},
		{Name: "warn upper case", Level: "WARN", Expected: slog.LevelWarn},
		{Name: "error", Level: "error", Expected: slog.LevelError},
		{Name: "unknown", Level: "chatty", Expected: slog.LevelInfo},
	}

	for _, testcase := range testcases {
		t.Run(testcase.Name, func(t *testing.T) {
			o := &options{}
			WithLevel(testcase.Level)(o)
			require.Equal(t, testcase.Expected, o.level)
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger := New(WithLevel("warn"), WithSource())
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestLogAdapterWrite(t *testing.T) {
	adapter := NewLogAdapter(Discard())
	require.NotNil(t, adapter)
	adapter.Printf("GET /tickets %d", 200)
}
