package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// transition is owned by its source node.
type transition struct {
	name        string
	event       string
	conditions  []domain.ActionDescriptor
	actions     []domain.ActionDescriptor
	destination string
	source      int
}

// TransitionInfo is a read-only description of a transition.
type TransitionInfo struct {
	Name        string
	Event       string
	Conditions  []domain.ActionDescriptor
	Actions     []domain.ActionDescriptor
	Destination string // as written in the definition
	Target      string // absolute path the destination resolves to
}

func (t *Tree) info(tr *transition) TransitionInfo {
	return TransitionInfo{
		Name:        tr.name,
		Event:       tr.event,
		Conditions:  tr.conditions,
		Actions:     tr.actions,
		Destination: tr.destination,
		Target:      t.qualify(tr.source, tr.destination),
	}
}

// wouldActivate reports whether the transition matches the event and all of
// its conditions hold.
func (t *Tree) wouldActivate(ctx context.Context, tr *transition, event string) (bool, error) {
	if tr.event != event {
		return false, nil
	}
	ok, err := t.invoker.Check(ctx, tr.conditions)
	if err != nil {
		return false, fmt.Errorf("conditions of %s on %s: %w", tr.label(), t.nodes[tr.source].path, err)
	}
	return ok, nil
}

// execute takes the transition: actions first, then the exit of the source
// state. It returns the destination as written; qualifying it is the
// caller's job. origin is the state the event was dispatched to, which only
// matters for the ancestor cascade.
func (t *Tree) execute(ctx context.Context, tr *transition, origin int) (string, error) {
	depth := t.nodes[tr.source].depth
	t.trace(ctx, FlagTransitions, depth, "Taking transition",
		"transition", tr.label(), "event", tr.event, "from", t.display(tr.source), "to", tr.destination)

	if len(tr.actions) > 0 {
		t.trace(ctx, FlagActionsTaken, depth, "Running transition actions", "actions", fmt.Sprint(tr.actions))
		if _, err := t.invoker.Invoke(ctx, tr.actions); err != nil {
			return "", fmt.Errorf("actions of %s on %s: %w", tr.label(), t.nodes[tr.source].path, err)
		}
	}

	if t.cascade == CascadeAncestors {
		if err := t.cascadeExit(ctx, tr, origin); err != nil {
			return "", err
		}
		return tr.destination, nil
	}

	if err := t.exit(ctx, tr.source); err != nil {
		return "", err
	}
	return tr.destination, nil
}

// cascadeExit exits from origin up to the common ancestor of source and
// destination, then enters the states between that ancestor and the
// destination, outermost first.
func (t *Tree) cascadeExit(ctx context.Context, tr *transition, origin int) error {
	path := t.qualify(tr.source, tr.destination)
	target, ok := t.byPath[path]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownState, path)
	}

	lca := t.commonAncestor(tr.source, target)
	if lca == tr.source || lca == target {
		lca = t.nodes[lca].parent
	}

	for id := origin; id >= 0 && id != lca; id = t.nodes[id].parent {
		if err := t.exit(ctx, id); err != nil {
			return err
		}
	}

	var between []int
	for id := t.nodes[target].parent; id >= 0 && id != lca; id = t.nodes[id].parent {
		between = append(between, id)
	}
	for i := len(between) - 1; i >= 0; i-- {
		if err := t.runEntry(ctx, between[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tr *transition) label() string {
	if tr.name != "" {
		return fmt.Sprintf("transition '%s'", tr.name)
	}
	return fmt.Sprintf("transition on '%s'", tr.event)
}
