package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"sessionId": "s-1"})

	log.WithError(errors.New("boom")).Warn("submission failed", map[string]interface{}{
		"status": 502,
		"cause":  errors.New("upstream"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "submission failed", entries[0].Message)
		assert.Equal(t, "s-1", ctx["sessionId"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "upstream", ctx["cause"])
		assert.EqualValues(t, 502, ctx["status"])
	}
}

func TestNewNoOpLogger_DoesNotPanic(t *testing.T) {
	l := NewNoOpLogger()
	assert.NotPanics(t, func() {
		l.With(map[string]interface{}{"a": 1}).Info("hello", nil)
		l.Debug("debug", nil)
		l.Error("error", map[string]interface{}{})
	})
}
