package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"}, 1, false)
	require.NoError(t, err)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("pass finished", "errors", 0)
	assert.Contains(t, buf.String(), `"msg":"pass finished"`)

	quiet, err := NewLogger(&buf, LogConfig{Level: "debug", Format: "text"}, 3, true)
	require.NoError(t, err)
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelWarn))
}
