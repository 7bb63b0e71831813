/*
Package canopy is a hierarchical state machine processor.

A machine is described declaratively as a tree of states. Each state may
carry entry and exit actions, nested states and transitions. A transition
fires on an event when all of its guard conditions hold, runs its actions,
exits its source state and names a destination to enter. Actions and
conditions are referenced by name and resolved at call time through a
registry supplied by the host application.

# Concept

Events are dispatched to the active leaf state first. If none of its own
transitions match, the parent's "auto" transitions are tried, and then the
event bubbles to the parent, recursively up to the root. The first matching
transition in declaration order wins.

Composite states with several children must name one of them "start". On
entry, the "start" pseudo-state is asked to process "auto" and the machine
follows the chain down to a leaf. A state with a single child enters it
directly.

# Reserved Names

  - root: the implicit top state; every path begins with it.
  - start: the pseudo-state that selects the initial child.
  - auto: an event that is always present; see above.
  - end_state: entered by Cleanup once every state has exited. It cannot
    declare transitions or exit actions.
  - final: a leaf from which the machine does not process further events.
  - exit_all_states: an event that triggers Cleanup.

# Usage

	reg := registry.New()
	reg.RegisterCommand("ring", func(ctx context.Context, args []string) error {
		fmt.Println("ring!")
		return nil
	})

	m, err := canopy.New(def, reg, canopy.WithBuiltins())
	if err != nil {
		log.Fatal(err)
	}
	defer m.Cleanup(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := m.Enqueue("button"); err != nil {
		log.Fatal(err)
	}
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
*/
package canopy
