package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelDebug, WithWriter(&buf))
	l.Debug("script failed", "error", errors.New("exit 1"))

	assert.Contains(t, buf.String(), `err="exit 1"`)
	assert.NotContains(t, buf.String(), "error=")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelInfo, WithWriter(&buf), WithJSON())
	l.Debug("hidden")
	l.Info("shown", "bundle", "@a.b")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"bundle":"@a.b"`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
