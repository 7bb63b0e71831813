package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	def := domain.StateDefinition{Name: "root", States: []domain.StateDefinition{{Name: "Only"}}}
	got, err := memory.NewLoader(def).LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestNewFromBytes(t *testing.T) {
	loader, err := memory.NewFromBytes([]byte("states:\n  Only: {}\n"))
	require.NoError(t, err)

	def, err := loader.LoadDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root", def.Name)
	require.Len(t, def.States, 1)
	assert.Equal(t, "Only", def.States[0].Name)

	_, err = memory.NewFromBytes([]byte("states: ["))
	assert.Error(t, err)
}
