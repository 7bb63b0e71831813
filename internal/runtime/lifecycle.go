package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// maxEntryChain bounds the number of states a single Enter may settle through.
// A chain longer than this means auto transitions loop back on themselves.
const maxEntryChain = 64

// Enter runs the entry actions of the state and then follows its start chain
// inward: a "start" pseudo-state is asked to process "auto", a sole child is
// entered directly. It returns the deepest state settled into.
//
// If an entry action fails the error is returned with a zero State; the
// caller must not consider the state entered.
func (s State) Enter(ctx context.Context) (State, error) {
	if s.tree == nil {
		return State{}, domain.ErrUnknownState
	}
	return s.tree.enter(ctx, s.id, 0)
}

// Exit runs the exit actions of the state. Ancestors are not exited.
func (s State) Exit(ctx context.Context) error {
	if s.tree == nil {
		return domain.ErrUnknownState
	}
	return s.tree.exit(ctx, s.id)
}

// ExitAll exits the state and then every ancestor up to and including the root.
func (s State) ExitAll(ctx context.Context) error {
	if s.tree == nil {
		return domain.ErrUnknownState
	}
	for id := s.id; id >= 0; id = s.tree.nodes[id].parent {
		if err := s.tree.exit(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) enter(ctx context.Context, id, hops int) (State, error) {
	if hops > maxEntryChain {
		return State{}, fmt.Errorf("%w: entry chain through '%s' exceeds %d states", domain.ErrTransitionLoop, t.nodes[id].path, maxEntryChain)
	}
	if err := t.runEntry(ctx, id); err != nil {
		return State{}, err
	}

	n := &t.nodes[id]
	if n.start < 0 {
		return State{tree: t, id: id}, nil
	}

	start := n.start
	if t.nodes[start].name != domain.StartState {
		return t.enter(ctx, start, hops+1)
	}

	t.trace(ctx, FlagExecutionDetails, n.depth, "Following start state", "state", t.display(start))
	raw, err := t.dispatch(ctx, start, domain.EventAuto, start)
	if err != nil {
		return State{}, err
	}
	if raw == "" {
		return State{tree: t, id: id}, nil
	}
	next, ok := t.byPath[raw]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", domain.ErrUnknownState, raw)
	}
	return t.enter(ctx, next, hops+1)
}

// runEntry runs the entry actions of a single state without descending.
func (t *Tree) runEntry(ctx context.Context, id int) error {
	n := &t.nodes[id]
	t.trace(ctx, FlagEntryExit, n.depth, "Entering state", "state", t.display(id))
	if len(n.entry) > 0 {
		t.trace(ctx, FlagActionsTaken, n.depth, "Running entry actions", "actions", fmt.Sprint(n.entry))
		if _, err := t.invoker.Invoke(ctx, n.entry); err != nil {
			return fmt.Errorf("entry actions of '%s': %w", n.path, err)
		}
	}
	if t.hooks.OnStateEnter != nil {
		t.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateEnter},
			Path:      n.path,
		})
	}
	return nil
}

func (t *Tree) exit(ctx context.Context, id int) error {
	n := &t.nodes[id]
	t.trace(ctx, FlagEntryExit, n.depth, "Exiting state", "state", t.display(id))
	if len(n.exit) > 0 {
		t.trace(ctx, FlagActionsTaken, n.depth, "Running exit actions", "actions", fmt.Sprint(n.exit))
		if _, err := t.invoker.Invoke(ctx, n.exit); err != nil {
			return fmt.Errorf("exit actions of '%s': %w", n.path, err)
		}
	}
	if t.hooks.OnStateExit != nil {
		t.hooks.OnStateExit(ctx, &domain.StateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateExit},
			Path:      n.path,
		})
	}
	return nil
}
