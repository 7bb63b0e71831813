package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

type builder struct {
	tree *Tree
	errs []error
}

// Build constructs the state tree for a definition.
//
// Structural problems do not stop construction: every one found is returned
// as a *domain.ConstructionError so the caller can report them all. A tree
// returned together with errors must not be run.
//
// A composite node needs an entry path into its start child: a transition of
// its own that targets the child, or a "start" pseudo-state that leaves
// through an "auto" transition. Bare destinations are sibling-relative, so a
// node can only target its own child with a dotted path. A sole child needs
// neither; entering its parent enters it directly.
func Build(def domain.StateDefinition, invoker Invoker, opts ...Option) (*Tree, []error) {
	b := &builder{tree: newTree(invoker, opts...)}
	b.tree.events = append([]string(nil), def.Events...)

	name := def.Name
	if name == "" {
		name = domain.RootName
	}
	b.add(&def, name, -1, 0)
	b.validate()

	transitions := 0
	for i := range b.tree.nodes {
		transitions += len(b.tree.nodes[i].transitions)
	}
	b.tree.trace(context.Background(), FlagMachineParse, 0, "Parsed state machine",
		"events", len(def.Events),
		"states", len(b.tree.nodes),
		"transitions", transitions,
		"errors", len(b.errs),
	)
	return b.tree, b.errs
}

func (b *builder) fail(path, format string, args ...any) {
	b.errs = append(b.errs, &domain.ConstructionError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// add creates the node for def and its subtree, depth first.
func (b *builder) add(def *domain.StateDefinition, name string, parent, depth int) int {
	t := b.tree
	path := name
	if parent >= 0 {
		path = t.nodes[parent].path + domain.PathSeparator + name
	}

	switch {
	case name == "":
		b.fail(path, "state has no name")
	case strings.Contains(name, domain.PathSeparator):
		b.fail(path, "state name '%s' must not contain '%s'", name, domain.PathSeparator)
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, node{
		name:   name,
		path:   path,
		depth:  depth,
		parent: parent,
		start:  -1,
		byName: make(map[string]int),
		entry:  def.Entry,
		exit:   def.Exit,
	})
	if _, dup := t.byPath[path]; dup {
		b.fail(path, "duplicate state")
	} else {
		t.byPath[path] = id
	}

	t.trace(context.Background(), FlagMachineParse, depth, "Adding state", "state", path)

	for i := range def.States {
		child := &def.States[i]
		cid := b.add(child, child.Name, id, depth+1)
		t.nodes[id].children = append(t.nodes[id].children, cid)
		t.nodes[id].byName[child.Name] = cid
	}

	n := &t.nodes[id]
	switch len(n.children) {
	case 0:
	case 1:
		n.start = n.children[0]
	default:
		if start, ok := n.byName[domain.StartState]; ok {
			n.start = start
		} else {
			b.fail(path, "has %d sub-states but no '%s' state", len(n.children), domain.StartState)
		}
	}

	for _, td := range def.Transitions {
		tr := transition{
			name:        td.Name,
			event:       td.Event,
			conditions:  td.Conditions,
			actions:     td.Actions,
			destination: td.Destination,
			source:      id,
		}
		if tr.event == "" {
			b.fail(path, "%s has no event", tr.label())
		}
		if tr.destination == "" {
			b.fail(path, "%s has no destination", tr.label())
		}
		n.transitions = append(n.transitions, tr)
	}

	if name == domain.EndState {
		if len(n.transitions) > 0 {
			b.fail(path, "'%s' cannot have exiting transitions", domain.EndState)
		}
		if len(n.exit) > 0 {
			b.fail(path, "'%s' cannot have exit actions", domain.EndState)
		}
	}
	return id
}

// validate runs the checks that need every path to be known.
func (b *builder) validate() {
	t := b.tree
	for id := range t.nodes {
		n := &t.nodes[id]
		for i := range n.transitions {
			tr := &n.transitions[i]
			if tr.destination != "" {
				target := t.qualify(id, tr.destination)
				if _, ok := t.byPath[target]; !ok {
					b.fail(n.path, "%s goes to '%s' which resolves to unknown state '%s'", tr.label(), tr.destination, target)
				}
			}
			if tr.event != "" && !t.DeclaresEvent(tr.event) {
				b.fail(n.path, "%s uses undeclared event '%s'", tr.label(), tr.event)
			}
		}
		if n.start >= 0 && !b.hasEntryPath(id) {
			b.fail(n.path, "no transition enters start state '%s'", t.nodes[n.start].path)
		}
	}
}

// hasEntryPath reports whether the start child of id can be reached: either a
// transition of id targets it, or the child is the start pseudo-state and
// leaves through an auto transition.
func (b *builder) hasEntryPath(id int) bool {
	t := b.tree
	n := &t.nodes[id]
	start := &t.nodes[n.start]
	for i := range n.transitions {
		if t.qualify(id, n.transitions[i].destination) == start.path {
			return true
		}
	}
	if start.name == domain.StartState {
		for i := range start.transitions {
			if start.transitions[i].event == domain.EventAuto {
				return true
			}
		}
		return false
	}
	// A sole child is entered directly when its parent is entered.
	return len(n.children) == 1
}
