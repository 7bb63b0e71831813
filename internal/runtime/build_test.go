package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasons(errs []error) []string {
	var out []string
	for _, err := range errs {
		var ce *domain.ConstructionError
		if errors.As(err, &ce) {
			out = append(out, ce.Path+": "+ce.Reason)
		}
	}
	return out
}

func TestBuild_Paths(t *testing.T) {
	tree, errs := runtime.Build(crossing(), crossingRecorder().reg)
	require.Empty(t, errs)

	var paths []string
	for _, s := range tree.States() {
		paths = append(paths, s.Path())
	}
	assert.Equal(t, []string{
		"root",
		"root.start",
		"root.Crossing",
		"root.Crossing.start",
		"root.Crossing.Countdown",
		"root.Crossing.Flowing",
		"root.Stopped",
	}, paths)

	crossingState, ok := tree.Lookup("root.Crossing")
	require.True(t, ok)
	start, ok := crossingState.StartChild()
	require.True(t, ok)
	assert.Equal(t, "root.Crossing.start", start.Path())

	parent, ok := start.Parent()
	require.True(t, ok)
	assert.Equal(t, crossingState.Path(), parent.Path())

	_, ok = tree.Root().Parent()
	assert.False(t, ok)
}

func TestBuild_DefaultRootName(t *testing.T) {
	def := domain.StateDefinition{
		States: []domain.StateDefinition{{Name: "Only"}},
	}
	tree, errs := runtime.Build(def, newRecorder().reg)
	require.Empty(t, errs)
	assert.Equal(t, "root", tree.Root().Path())
	only, ok := tree.Root().StartChild()
	require.True(t, ok)
	assert.Equal(t, "root.Only", only.Path())
}

func TestBuild_SoleChildNeedsNoEntryTransition(t *testing.T) {
	def := domain.StateDefinition{
		States: []domain.StateDefinition{
			{Name: "P", States: []domain.StateDefinition{{Name: "Only"}}},
		},
	}
	tree, errs := runtime.Build(def, newRecorder().reg)
	require.Empty(t, errs)

	p, ok := tree.Lookup("root.P")
	require.True(t, ok)
	leaf, err := p.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root.P.Only", leaf.Path())
}

func TestBuild_BareStartIsSiblingRelative(t *testing.T) {
	// "start" on P names a sibling of P, not P's own start child.
	def := domain.StateDefinition{
		States: []domain.StateDefinition{
			{Name: "P", Transitions: []domain.TransitionDefinition{{Event: "go", Destination: "start"}},
				States: []domain.StateDefinition{{Name: "start"}, {Name: "A"}}},
		},
	}
	_, errs := runtime.Build(def, newRecorder().reg)
	assert.Contains(t, reasons(errs), "root.P: no transition enters start state 'root.P.start'")
}

func TestBuild_MissingStart(t *testing.T) {
	def := domain.StateDefinition{
		States: []domain.StateDefinition{{Name: "A"}, {Name: "B"}},
	}
	_, errs := runtime.Build(def, newRecorder().reg)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrInvalidDefinition)
	assert.Contains(t, errs[0].Error(), "no 'start' state")
}

func TestBuild_EntryPathToStart(t *testing.T) {
	// The start state has no auto transition, so the composite itself must
	// target it.
	withEntry := domain.StateDefinition{
		States: []domain.StateDefinition{
			{Name: "start", Transitions: []domain.TransitionDefinition{on("go", "A")}},
			{Name: "A"},
		},
		Transitions: []domain.TransitionDefinition{on("reset", "start")},
	}
	_, errs := runtime.Build(withEntry, newRecorder().reg)
	assert.Empty(t, errs)

	withoutEntry := withEntry
	withoutEntry.Transitions = nil
	_, errs = runtime.Build(withoutEntry, newRecorder().reg)
	require.Len(t, errs, 1)
	assert.Contains(t, reasons(errs)[0], "no transition enters start state 'root.start'")
}

func TestBuild_StartAutoIsImplicitEntry(t *testing.T) {
	def := domain.StateDefinition{
		States: []domain.StateDefinition{
			{Name: "start", Transitions: []domain.TransitionDefinition{on("auto", "A")}},
			{Name: "A"},
		},
	}
	_, errs := runtime.Build(def, newRecorder().reg)
	assert.Empty(t, errs)
}

func TestBuild_StructuralErrors(t *testing.T) {
	def := domain.StateDefinition{
		Events: []string{"go"},
		States: []domain.StateDefinition{
			{Name: "start", Transitions: []domain.TransitionDefinition{on("auto", "A")}},
			{
				Name: "A",
				Transitions: []domain.TransitionDefinition{
					{Name: "nowhere", Event: "go"},
					on("go", "Missing"),
					on("undeclared", "A"),
				},
			},
			{
				Name:        "end_state",
				Exit:        acts("cleanup"),
				Transitions: []domain.TransitionDefinition{on("go", "A")},
			},
			{Name: "A"},
		},
	}

	_, errs := runtime.Build(def, newRecorder().reg)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
	}
	assert.ElementsMatch(t, []string{
		"root.A: transition 'nowhere' has no destination",
		"root.A: duplicate state",
		"root.end_state: 'end_state' cannot have exiting transitions",
		"root.end_state: 'end_state' cannot have exit actions",
		"root.A: transition on 'go' goes to 'Missing' which resolves to unknown state 'root.Missing'",
		"root.A: transition on 'undeclared' uses undeclared event 'undeclared'",
	}, reasons(errs))
}

func TestBuild_DottedNameRejected(t *testing.T) {
	def := domain.StateDefinition{
		States: []domain.StateDefinition{{Name: "a.b"}},
	}
	_, errs := runtime.Build(def, newRecorder().reg)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "must not contain '.'")
}

func TestState_SubState(t *testing.T) {
	tree, errs := runtime.Build(crossing(), crossingRecorder().reg)
	require.Empty(t, errs)

	root := tree.Root()
	s, ok := root.SubState("Crossing.Countdown")
	require.True(t, ok)
	assert.Equal(t, "root.Crossing.Countdown", s.Path())

	crossingState, _ := root.SubState("Crossing")
	s, ok = crossingState.SubState("Flowing")
	require.True(t, ok)
	assert.Equal(t, "root.Crossing.Flowing", s.Path())

	s, ok = crossingState.SubState("root.Stopped")
	require.True(t, ok)
	assert.Equal(t, "root.Stopped", s.Path())

	_, ok = crossingState.SubState("Stopped")
	assert.False(t, ok)
	_, ok = root.SubState("")
	assert.False(t, ok)
}

func TestState_TransitionsInfo(t *testing.T) {
	tree, errs := runtime.Build(crossing(), crossingRecorder().reg)
	require.Empty(t, errs)

	countdown, _ := tree.Lookup("root.Crossing.Countdown")
	infos := countdown.Transitions()
	require.Len(t, infos, 2)
	assert.Equal(t, "one_second", infos[0].Event)
	assert.Equal(t, "Countdown", infos[0].Destination)
	assert.Equal(t, "root.Crossing.Countdown", infos[0].Target)
	assert.Equal(t, "root.Crossing.Flowing", infos[1].Target)
}
