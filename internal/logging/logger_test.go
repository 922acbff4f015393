package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("error", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))

	l, err = New("", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_InvalidLevelFallsBack(t *testing.T) {
	l, err := Init("loud", false)
	require.Error(t, err)
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger(context.Background()))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestGetLogger_FromContext(t *testing.T) {
	l := zap.NewNop()
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, GetLogger(ctx))
	assert.Same(t, zap.L(), GetLogger(context.Background()))
}
