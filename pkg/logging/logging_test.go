package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tc := range testCases {
		logger, err := New(tc.level, "production")
		require.NoError(t, err, tc.level)
		assert.True(t, logger.Core().Enabled(tc.want), tc.level)
		if tc.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tc.want-1), tc.level)
		}
	}
}

func TestNewDevelopment(t *testing.T) {
	logger, err := New("info", "development")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "production")
	assert.Error(t, err)
}
