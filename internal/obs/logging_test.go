package obs

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Format: "json", Level: "nonsense"}, &buf)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Format: "console", Level: "debug"}, &buf)
	logger.Debug().Str("flow", "contact").Msg("rendered")
	require.Contains(t, buf.String(), "rendered")
	require.NotContains(t, buf.String(), `{"level"`)
}
