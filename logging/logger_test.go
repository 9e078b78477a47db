package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeLines parses each JSON log line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestRuntimeLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn line", entries[0]["msg"])
	assert.Equal(t, "error line", entries[1]["msg"])
}

func TestRuntimeLoggerContextualFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: LogLevelInfo, Format: "json", Output: &buf})

	l := base.WithComponent("runner").WithSession("s-42")
	l.Info("event persisted", "event", "ev-1")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "runner", entries[0]["component"])
	assert.Equal(t, "s-42", entries[0]["session_id"])
	assert.Equal(t, "ev-1", entries[0]["event"])

	// The base logger is untouched by the With* clones.
	buf.Reset()
	base.Info("plain")
	entries = decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "component")
	assert.NotContains(t, entries[0], "session_id")
}

func TestSlogAdapterForwards(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := NewSlogAdapter(slog.New(handler))

	l.Debug("d", "k", "1")
	l.Info("i", "k", "2")
	l.Warn("w", "k", "3")
	l.Error("e", "k", "4")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 4)
	for i, want := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		assert.Equal(t, want, entries[i]["level"])
	}
	assert.Equal(t, "2", entries[1]["k"])
}

func TestNoOpLoggerDiscards(t *testing.T) {
	var l Logger = NoOpLogger{}

	// No output anywhere; just must not blow up.
	l.Debug("d")
	l.Info("i", "k", "v")
	l.Warn("w")
	l.Error("e", "err", assert.AnError)
}
