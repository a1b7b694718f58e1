package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("request failed", slog.String("endpoint", "BLAST"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "request failed", entry["message"])
	assert.Equal(t, "BLAST", entry["endpoint"])
	assert.Equal(t, "warn", entry["level"])
}

func TestPlainLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "plain", slog.LevelDebug)

	logger.Debug("skipping ignored endpoint", slog.String("endpoint", "OUR_NODE"))

	assert.Contains(t, buf.String(), "skipping ignored endpoint")
	assert.Contains(t, buf.String(), "endpoint=OUR_NODE")
}
