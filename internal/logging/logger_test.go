package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, "loud")
}

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown", slog.Int("round", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "round=3")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "owenhash.log")
	log, closeFn, err := New(Config{Level: "debug", Output: path})
	require.NoError(t, err)

	log.Debug("to file", slog.String("component", "test"))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "component=test")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestNew_StreamsHaveNoopClose(t *testing.T) {
	for _, out := range []string{"", "stderr", "stdout", "discard"} {
		log, closeFn, err := New(Config{Output: out})
		require.NoError(t, err, out)
		require.NotNil(t, log)
		assert.NoError(t, closeFn())
	}
}
