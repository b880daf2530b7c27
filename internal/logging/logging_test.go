package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"timeplanner/internal/config"
)

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(config.LogConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("day closed", zap.String("date", "2025-06-10"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "day closed", entry["msg"])
	assert.Equal(t, "2025-06-10", entry["date"])
	assert.Equal(t, "timeplanner", entry["logger"])
	assert.Contains(t, entry, "ts")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(config.LogConfig{Level: "debug", Format: "console"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Debug("collections loaded", zap.Int("goals", 2))
	require.NoError(t, log.Sync())
	out := buf.String()
	assert.Contains(t, out, "debug")
	assert.Contains(t, out, "collections loaded")
	assert.Contains(t, out, `{"goals": 2}`)
}

func TestRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
