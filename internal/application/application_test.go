package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	app, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "wardbook", app.Name)
	assert.Contains(t, app.Flows, "default")
	assert.Contains(t, app.ListSchemas["default"], "demographics")
	assert.Contains(t, app.MicroTestDefaults, "micro_test_c_difficile")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: clinic\nlist_schemas:\n  default: [diagnosis]\n"), 0o600))

	app, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "clinic", app.Name)
	assert.Equal(t, []string{"diagnosis"}, app.ListSchemas["default"])
	assert.NotNil(t, app.Flows)
	assert.NotNil(t, app.MicroTestDefaults)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("flows: {}\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = Parse([]byte("name: [unterminated"))
	assert.Error(t, err)
}
