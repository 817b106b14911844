package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
)

func TestNew_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "debug", Format: "json", OutputPath: path}, config.AppConfig{Name: "wardbook", Environment: "test"})
	require.NoError(t, err)

	log.Info("episode admitted")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"episode admitted"`)
	assert.Contains(t, string(raw), `"ts":`)
	assert.Contains(t, string(raw), `"service":"wardbook"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty", Format: "console", OutputPath: "stdout"}, config.AppConfig{})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNew_ConsoleFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	log, err := New(config.LogConfig{Level: "warn", Format: "console", OutputPath: path}, config.AppConfig{Name: "wardbook"})
	require.NoError(t, err)

	log.Info("tagging updated")
	log.Warn("stale consistency token")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tagging updated")
	assert.Contains(t, string(raw), "stale consistency token")
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(config.LogConfig{Level: "info", Format: "json", OutputPath: filepath.Join(t.TempDir(), "missing", "app.log")}, config.AppConfig{})
	assert.ErrorContains(t, err, "opening log output")
}
