package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Info("composed", map[string]interface{}{
		"kind":  "evidence",
		"data":  []byte("PK\x03\x04"),
		"cause": errors.New("boom"),
	})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "evidence", ctx["kind"])
	assert.Equal(t, int64(4), ctx["dataBytes"])
	assert.NotContains(t, ctx, "data")
	assert.Equal(t, "boom", ctx["cause"])
}

func TestWithFieldsAndError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{"component": "api"}).
		WithError(errors.New("timeout"))

	log.Debug("hidden", nil)
	log.Warn("slow", nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "slow", entry.Message)
	assert.Equal(t, "api", entry.ContextMap()["component"])
	assert.Equal(t, "timeout", entry.ContextMap()["error"])
}

func TestContext(t *testing.T) {
	fallback := NewNoOpLogger()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))

	scoped := NewTestLogger(t)
	ctx := IntoContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestNew_UnknownLevel(t *testing.T) {
	l := New("chatty", "console", "stderr")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
