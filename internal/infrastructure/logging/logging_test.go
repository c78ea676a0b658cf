package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMavenHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("system", "matching").Info("run complete", "matched", 3, "run_id", "run-1")

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[INFO] [matching] ["), line)
	assert.Contains(t, line, "run complete matched=3 run_id=run-1")
	assert.NotContains(t, line, "system=")
	assert.NotContains(t, line, "\033[", "no colors when not a terminal")
}

func TestMavenHandler_QuotesAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, nil))

	logger.Warn("provider failed", "error", errors.New("connection refused"), "took", 1500*time.Millisecond)

	line := buf.String()
	assert.Contains(t, line, "[WARN]")
	assert.Contains(t, line, `error="connection refused"`)
	assert.Contains(t, line, "took=1.5s")
}

func TestMavenHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, nil))

	logger.WithGroup("http").Info("request", "status", 200, slog.Group("client", "ip", "10.0.0.1"))

	assert.Contains(t, buf.String(), "http.status=200 http.client.ip=10.0.0.1")
}

func TestMavenHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "debug", Format: "json"})

	logger.Debug("hello", "tenant_id", "t-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "t-1", entry["tenant_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}
