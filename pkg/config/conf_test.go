package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	dir := t.TempDir()

	c1, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), c1)

	c1.Language = "zh"
	c1.TopWords = 3
	c1.DSN = "postgres://localhost/cherry"

	err = Save(dir, c1)
	assert.NoError(t, err)

	c2, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestReadOrCreate_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("language: zh\nworkers: -1\n"), fileMode))

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, "zh", c.Language)
	assert.Equal(t, formatDefault, c.Format)
	assert.Equal(t, workersDefault, c.Workers)
	assert.Equal(t, 0, c.TopWords)
}

func TestReadOrCreate_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("workers: [\n"), fileMode))

	_, err := ReadOrCreate(dir)
	assert.Error(t, err)
}

func TestRequiredArgs(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(t.TempDir(), nil))

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}
