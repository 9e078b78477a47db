package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(obs))

	l.Debug("session loaded", "session_id", "s1")
	l.Info("model call completed", "model", "mock", "tokens", 12)
	l.Warn("retrying")
	l.Error("append failed", "error", assert.AnError.Error())

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "session loaded", entries[0].Message)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "mock", entries[1].ContextMap()["model"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, assert.AnError.Error(), entries[3].ContextMap()["error"])
}

func TestZapLoggerLevelGate(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	l := NewZapLogger(zap.New(obs))

	l.Debug("suppressed")
	l.Info("suppressed")
	l.Warn("kept")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
}

func TestNewZapProduction(t *testing.T) {
	l, err := NewZapProduction()
	require.NoError(t, err)
	require.NotNil(t, l)

	// Sync may fail on non-file stderr; the call itself must be safe.
	_ = l.Sync()
}
