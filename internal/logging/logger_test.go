package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewWithFormat_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	NewWithFormat(&buf, slog.LevelInfo, "text").Info("failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), "err=boom")

	buf.Reset()
	NewWithFormat(&buf, slog.LevelInfo, "json").Info("failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), `"err":"boom"`)

	buf.Reset()
	NewWithFormat(&buf, slog.LevelWarn, "text").Info("hidden")
	assert.Empty(t, buf.String())
}
