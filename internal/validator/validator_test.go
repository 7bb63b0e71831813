package validator

import (
	"testing"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *dsl.Builder) *runtime.Tree {
	t.Helper()
	tree, errs := runtime.Build(b.Definition(), registry.New())
	require.Empty(t, errs)
	return tree
}

func TestUnreachable_AllReachable(t *testing.T) {
	root := dsl.New("").Events("button", "halt")
	root.Start("Crossing")
	c := root.State("Crossing")
	c.On("halt").Go("Stopped")
	c.Start("Flowing")
	c.State("Flowing").On("button").Go("Countdown")
	c.State("Countdown").State("Ticking")
	root.State("Stopped")
	root.State("end_state")

	assert.Empty(t, Unreachable(build(t, root)))
}

func TestUnreachable_ReportsOrphans(t *testing.T) {
	root := dsl.New("").Events("go")
	root.Start("A")
	root.State("A").On("go").Go("B.Inner")
	b := root.State("B")
	b.Start("Other")
	b.State("Other")
	b.State("Inner")
	root.State("Island").State("Deep")

	// B.Inner is entered directly, so B never follows its start chain.
	assert.Equal(t, []string{"root.B.Other", "root.Island", "root.Island.Deep"}, Unreachable(build(t, root)))
}

func TestUnreachable_BubbledTransitions(t *testing.T) {
	// Leaf Child reaches Escape through its parent's transition.
	root := dsl.New("").Events("out")
	root.Start("Parent")
	p := root.State("Parent")
	p.On("out").Go("Escape")
	p.State("Child")
	root.State("Escape")

	assert.Empty(t, Unreachable(build(t, root)))
}
