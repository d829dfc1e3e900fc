package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Info("payment opened", map[string]any{"session_id": "s1", "auto_login": true})
	l.Debug("detail", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "payment opened", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "s1", ctx["session_id"])
		assert.Equal(t, true, ctx["auto_login"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, "debug", ForDebug(true))
	assert.Equal(t, "info", ForDebug(false))
}
