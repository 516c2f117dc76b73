package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/config"
	"github.com/dangerclosesec/agiletrack/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", config.ModeDebug)

	log.Debug("hidden")
	log.Info("budget created", "category", "travel")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "budget created", entry["msg"])
	assert.Equal(t, "travel", entry["category"])
	assert.Equal(t, "agiletrack", entry["app"])
	assert.NotContains(t, buf.String(), "hidden")
}
