package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: [go]\nstates:\n  start:\n    tran: {auto: A}\n  A: {}\n"), 0o644))

	loader := file.NewLoader(path)
	assert.Equal(t, path, loader.Path())

	def, err := loader.LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, def.Events)
	require.Len(t, def.States, 2)
	assert.Equal(t, "A", def.States[0].Transitions[0].Destination)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := file.NewLoader(filepath.Join(dir, "missing.yaml")).LoadDefinition(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("states: ["), 0o644))
	_, err = file.NewLoader(bad).LoadDefinition(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoader_Example(t *testing.T) {
	def, err := file.NewLoader(filepath.Join("..", "..", "..", "examples", "crossing", "crossing.yaml")).LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root", def.Name)
	assert.Contains(t, def.Events, "one_second")
}
