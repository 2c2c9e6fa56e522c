package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestInit verifies the environment presets and level handling.
func TestInit(t *testing.T) {
	t.Run("development enables debug", func(t *testing.T) {
		err := Init("development", "debug")
		require.NoError(t, err)
		require.NotNil(t, globalLogger)
		assert.True(t, globalLogger.Core().Enabled(zap.DebugLevel))
	})

	t.Run("production filters debug", func(t *testing.T) {
		err := Init("production", "info")
		require.NoError(t, err)
		require.NotNil(t, globalLogger)
		assert.False(t, globalLogger.Core().Enabled(zap.DebugLevel))
		assert.True(t, globalLogger.Core().Enabled(zap.InfoLevel))
	})

	t.Run("unparseable level keeps the preset default", func(t *testing.T) {
		err := Init("development", "loudest")
		require.NoError(t, err)
	})
}

// TestGet verifies the no-op fallback before Init.
func TestGet(t *testing.T) {
	globalLogger = nil
	assert.NotNil(t, Get())

	Init("development", "info")
	assert.NotNil(t, Get())
	assert.NotEqual(t, zap.NewNop(), Get())
}

// TestSync verifies Sync is safe before and after Init.
func TestSync(t *testing.T) {
	globalLogger = nil
	Sync()

	Init("development", "info")
	Sync()
}
