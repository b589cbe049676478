package observ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_RespectsConfiguredLevel(t *testing.T) {
	logger, err := NewLogger("development", "debug")
	require.NoError(t, err)
	assert.NotNil(t, logger.Check(zapcore.DebugLevel, "level-check"))
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("production", "chatty")
	require.NoError(t, err)
	assert.NotNil(t, logger.Check(zapcore.InfoLevel, "level-check"))
	assert.Nil(t, logger.Check(zapcore.DebugLevel, "level-check"))
}
