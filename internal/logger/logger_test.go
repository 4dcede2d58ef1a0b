package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DebugLevel,
		"INFO":    logger.InfoLevel,
		"":        logger.InfoLevel,
		"warning": logger.WarnLevel,
		"warn":    logger.WarnLevel,
		"error":   logger.ErrorLevel,
	}
	for in, want := range cases {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestComponentLoggerWritesCodeAndComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.Init("debug", &buf, true))
	t.Cleanup(logger.Disable)

	log := logger.Component("generator")
	log.ErrorWithCode(errors.New().New(errors.ErrTimeout)).Str("metric", "messages").Msg("write failed")

	out := buf.String()
	assert.Contains(t, out, "component=generator")
	assert.Contains(t, out, "error_code=operation_timeout")
	assert.Contains(t, out, "metric=messages")
	assert.Contains(t, out, "write failed")
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.Init("warning", &buf, true))
	t.Cleanup(logger.Disable)

	logger.Debug().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
