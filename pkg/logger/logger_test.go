package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")
	require.True(t, l.Enabled(context.Background(), slog.LevelDebug))

	l.Debug("decoded image", "media_type", "image/png")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "decoded image", rec["msg"])
	require.Equal(t, "image/png", rec["media_type"])
}

func TestNew_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("hidden")
	require.Empty(t, buf.String())
	l.Warn("shown")
	require.Contains(t, buf.String(), "msg=shown")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := New(&buf, "info", "text").With("command", "decode")

	ctx := WithContext(context.Background(), custom)
	require.Same(t, custom, FromContext(ctx))
	require.Same(t, L, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, ParseLevel(tt.input), "ParseLevel(%s)", tt.input)
	}
}
