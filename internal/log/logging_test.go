package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestLevelFilterGatesRecords(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})
	logger := slog.New(LevelFilter{
		pass: func(l slog.Level) bool { return l >= slog.LevelWarn },
		h:    inner,
	})

	logger.Info("capture started")
	logger.Warn("degraded capture")

	out := buf.String()
	assert.NotContains(t, out, "capture started")
	assert.Contains(t, out, "degraded capture")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(MultiHandler{hs: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	}})
	logger.Info("archive written")
	assert.Contains(t, a.String(), "archive written")
	assert.Contains(t, b.String(), "archive written")
}

func TestTraceRecordsCarryLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level:       LevelTrace,
		ReplaceAttr: traceLabel,
	}))
	Trace(logger, "visiting expression", "callee", "__cxx_block_0")

	out := buf.String()
	assert.Contains(t, out, "level=TRACE")
	assert.NotContains(t, out, "DEBUG-4")
	assert.Contains(t, out, "visiting expression")
}

func TestSetupLoggerFileCapturesFullStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")
	logger, closers, err := SetupLogger("warn", path)
	require.NoError(t, err)

	// The console handler is gated at warn, but the file gets everything
	// down to trace.
	Trace(logger, "skipping expression")
	logger.Info("resolved block")
	logger.Warn("degraded capture")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "level=TRACE")
	assert.Contains(t, out, "skipping expression")
	assert.Contains(t, out, "resolved block")
	assert.Contains(t, out, "degraded capture")
}

func TestMultiHandlerEnabledAnyLevel(t *testing.T) {
	var buf bytes.Buffer
	m := MultiHandler{hs: []slog.Handler{
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	assert.True(t, m.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, m.Enabled(context.Background(), LevelTrace))
}
