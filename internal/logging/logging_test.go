package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "", "prod", "Production"} {
		logger, err := New(mode, zapcore.InfoLevel)
		require.NoError(t, err, mode)
		require.True(t, logger.Core().Enabled(zapcore.InfoLevel), mode)
		require.False(t, logger.Core().Enabled(zapcore.DebugLevel), mode)
	}

	logger, err := New("silent", zapcore.DebugLevel)
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
