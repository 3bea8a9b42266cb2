package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewHandler_ProdWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	base = slog.New(newHandler(&buf, "prod", slog.LevelInfo))

	Debug("hidden", nil)
	Info("session created", map[string]any{"user_id": "u-1"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session created", line["msg"])
	assert.Equal(t, "u-1", line["user_id"])
}

func TestNewHandler_DevIsText(t *testing.T) {
	var buf bytes.Buffer
	base = slog.New(newHandler(&buf, "dev", slog.LevelDebug))

	Debug("route registered", map[string]any{"path": "/health"})

	assert.Contains(t, buf.String(), "route registered")
	assert.False(t, json.Valid(buf.Bytes()))
}
