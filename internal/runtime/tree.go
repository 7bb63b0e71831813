// Package runtime implements the hierarchical state machine core: the state
// tree built from a definition, path resolution, the entry/exit lifecycle and
// the event dispatch algorithm.
package runtime

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// Invoker runs action descriptors against the application's functions.
// registry.Registry is the standard implementation.
type Invoker interface {
	// Invoke runs every descriptor and reports whether all returned true.
	Invoke(ctx context.Context, descriptors []domain.ActionDescriptor) (bool, error)
	// Check evaluates guard conditions, stopping at the first false one.
	Check(ctx context.Context, conditions []domain.ActionDescriptor) (bool, error)
}

// node is one state of the arena. Parent and children are arena indices.
type node struct {
	name        string
	path        string
	depth       int
	parent      int
	children    []int
	byName      map[string]int
	start       int
	entry       []domain.ActionDescriptor
	exit        []domain.ActionDescriptor
	transitions []transition
}

// Tree is an immutable state hierarchy built once from a definition.
// It is safe to share between goroutines as long as each one owns its cursor
// and the Invoker's functions tolerate concurrent calls.
type Tree struct {
	nodes   []node
	byPath  map[string]int
	events  []string
	invoker Invoker

	logger  *slog.Logger
	diag    DiagnosticsConfig
	cascade CascadePolicy
	hooks   domain.LifecycleHooks
}

// State is a handle to one node of a Tree. The zero value is not a state.
type State struct {
	tree *Tree
	id   int
}

func newTree(invoker Invoker, opts ...Option) *Tree {
	t := &Tree{
		byPath:  make(map[string]int),
		invoker: invoker,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the synthetic top-level state.
func (t *Tree) Root() State {
	return State{tree: t, id: 0}
}

// Len returns the number of states, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Events returns the events declared by the definition.
func (t *Tree) Events() []string {
	return t.events
}

// DeclaresEvent reports whether the machine accepts the event. A definition
// without declared events accepts everything.
func (t *Tree) DeclaresEvent(event string) bool {
	if len(t.events) == 0 || event == domain.EventAuto || event == domain.EventExitAllStates {
		return true
	}
	for _, e := range t.events {
		if e == event {
			return true
		}
	}
	return false
}

// Cascade returns the configured cascade policy.
func (t *Tree) Cascade() CascadePolicy {
	return t.cascade
}

// States returns every state in depth-first declaration order.
func (t *Tree) States() []State {
	states := make([]State, len(t.nodes))
	for i := range t.nodes {
		states[i] = State{tree: t, id: i}
	}
	return states
}

// Lookup resolves an absolute path such as "root.Crossing.Countdown".
func (t *Tree) Lookup(path string) (State, bool) {
	id, ok := t.byPath[path]
	if !ok {
		return State{}, false
	}
	return State{tree: t, id: id}, true
}

// qualify resolves a transition destination to an absolute path.
// Bare names are siblings of the source state; dotted names are absolute,
// with the root segment optional.
func (t *Tree) qualify(source int, dest string) string {
	rootPath := t.nodes[0].path
	if domain.IsQualified(dest) {
		if strings.HasPrefix(dest, rootPath+domain.PathSeparator) {
			return dest
		}
		return rootPath + domain.PathSeparator + dest
	}
	base := t.nodes[source].parent
	if base < 0 {
		base = source
	}
	return t.nodes[base].path + domain.PathSeparator + dest
}

// commonAncestor returns the deepest state that is an ancestor-or-self of both a and b.
func (t *Tree) commonAncestor(a, b int) int {
	for t.nodes[a].depth > t.nodes[b].depth {
		a = t.nodes[a].parent
	}
	for t.nodes[b].depth > t.nodes[a].depth {
		b = t.nodes[b].parent
	}
	for a != b {
		a = t.nodes[a].parent
		b = t.nodes[b].parent
	}
	return a
}

// Valid reports whether the handle refers to a state.
func (s State) Valid() bool {
	return s.tree != nil
}

// Tree returns the tree the state belongs to.
func (s State) Tree() *Tree {
	return s.tree
}

// Path returns the fully qualified dotted name of the state.
func (s State) Path() string {
	if s.tree == nil {
		return ""
	}
	return s.tree.nodes[s.id].path
}

// Name returns the local name of the state.
func (s State) Name() string {
	if s.tree == nil {
		return ""
	}
	return s.tree.nodes[s.id].name
}

// Depth returns the nesting level; the root is 0.
func (s State) Depth() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.nodes[s.id].depth
}

// Parent returns the enclosing state.
func (s State) Parent() (State, bool) {
	if s.tree == nil || s.tree.nodes[s.id].parent < 0 {
		return State{}, false
	}
	return State{tree: s.tree, id: s.tree.nodes[s.id].parent}, true
}

// Children returns the direct children in declaration order.
func (s State) Children() []State {
	if s.tree == nil {
		return nil
	}
	ids := s.tree.nodes[s.id].children
	children := make([]State, len(ids))
	for i, id := range ids {
		children[i] = State{tree: s.tree, id: id}
	}
	return children
}

// StartChild returns the child entered automatically on entry.
func (s State) StartChild() (State, bool) {
	if s.tree == nil || s.tree.nodes[s.id].start < 0 {
		return State{}, false
	}
	return State{tree: s.tree, id: s.tree.nodes[s.id].start}, true
}

// IsLeaf reports whether the state has no children.
func (s State) IsLeaf() bool {
	return s.tree == nil || len(s.tree.nodes[s.id].children) == 0
}

// IsTerminal reports whether the machine stops processing events in this state.
func (s State) IsTerminal() bool {
	name := s.Name()
	return name == domain.FinalState || name == domain.EndState
}

// EntryActions returns the entry action descriptors.
func (s State) EntryActions() []domain.ActionDescriptor {
	if s.tree == nil {
		return nil
	}
	return s.tree.nodes[s.id].entry
}

// ExitActions returns the exit action descriptors.
func (s State) ExitActions() []domain.ActionDescriptor {
	if s.tree == nil {
		return nil
	}
	return s.tree.nodes[s.id].exit
}

// Transitions describes the transitions declared directly on the state.
func (s State) Transitions() []TransitionInfo {
	if s.tree == nil {
		return nil
	}
	list := s.tree.nodes[s.id].transitions
	infos := make([]TransitionInfo, len(list))
	for i := range list {
		infos[i] = s.tree.info(&list[i])
	}
	return infos
}

// SubState resolves a dotted path below the state. A path starting with the
// root name is resolved as an absolute path instead.
func (s State) SubState(path string) (State, bool) {
	if s.tree == nil || path == "" {
		return State{}, false
	}
	rootPath := s.tree.nodes[0].path
	if path == rootPath || strings.HasPrefix(path, rootPath+domain.PathSeparator) {
		return s.tree.Lookup(path)
	}
	id := s.id
	for _, segment := range strings.Split(path, domain.PathSeparator) {
		child, ok := s.tree.nodes[id].byName[segment]
		if !ok {
			return State{}, false
		}
		id = child
	}
	return State{tree: s.tree, id: id}, true
}

func (s State) String() string {
	return s.Path()
}
