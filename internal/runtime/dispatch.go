package runtime

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// ProcessEvent dispatches an event starting at this state and returns the
// absolute path of the destination, or "" when no transition was taken.
//
// The search order is:
//  1. the state's own transitions, first match wins;
//  2. for a real event, the parent's own "auto" transitions;
//  3. the parent's ProcessEvent with the original event.
//
// The destination is returned unentered; the caller looks it up and calls
// Enter on it. An error (missing action, failing user function) means the
// transition must not be considered taken.
func (s State) ProcessEvent(ctx context.Context, event string) (string, error) {
	if s.tree == nil {
		return "", domain.ErrUnknownState
	}
	return s.tree.dispatch(ctx, s.id, event, s.id)
}

// Match returns the first transition declared on this state that would
// activate for the event. Only guard conditions are run.
func (s State) Match(ctx context.Context, event string) (TransitionInfo, bool, error) {
	if s.tree == nil {
		return TransitionInfo{}, false, domain.ErrUnknownState
	}
	list := s.tree.nodes[s.id].transitions
	for i := range list {
		ok, err := s.tree.wouldActivate(ctx, &list[i], event)
		if err != nil {
			return TransitionInfo{}, false, err
		}
		if ok {
			return s.tree.info(&list[i]), true, nil
		}
	}
	return TransitionInfo{}, false, nil
}

func (t *Tree) dispatch(ctx context.Context, id int, event string, origin int) (string, error) {
	n := &t.nodes[id]
	t.trace(ctx, FlagExecutionDetails, n.depth, "Processing event", "event", event, "state", t.display(id))

	if dest, ok, err := t.fireOwn(ctx, id, event, origin); err != nil || ok {
		return dest, err
	}
	if n.parent < 0 {
		return "", nil
	}

	if event != domain.EventAuto {
		if dest, ok, err := t.fireOwn(ctx, n.parent, domain.EventAuto, origin); err != nil || ok {
			return dest, err
		}
	}
	return t.dispatch(ctx, n.parent, event, origin)
}

// fireOwn takes the first transition of id that would activate.
func (t *Tree) fireOwn(ctx context.Context, id int, event string, origin int) (string, bool, error) {
	list := t.nodes[id].transitions
	for i := range list {
		tr := &list[i]
		ok, err := t.wouldActivate(ctx, tr, event)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		raw, err := t.execute(ctx, tr, origin)
		if err != nil {
			return "", false, err
		}
		return t.qualify(id, raw), true, nil
	}
	return "", false, nil
}
