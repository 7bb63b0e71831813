package dsl

import (
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
)

// Builder manages the construction of one state and its subtree.
// The value returned by New is the root.
type Builder struct {
	name        string
	events      []string
	entry       []domain.ActionDescriptor
	exit        []domain.ActionDescriptor
	children    []*Builder
	transitions []*TransitionBuilder
	parent      *Builder
}

// New creates a root builder. An empty name becomes "root".
func New(name string) *Builder {
	if name == "" {
		name = domain.RootName
	}
	return &Builder{name: name}
}

// Events declares the events the machine accepts. Only meaningful on the root.
func (b *Builder) Events(events ...string) *Builder {
	b.events = append(b.events, events...)
	return b
}

// State returns the child with the given name, creating it if needed.
func (b *Builder) State(name string) *Builder {
	for _, c := range b.children {
		if c.name == name {
			return c
		}
	}
	c := &Builder{name: name, parent: b}
	b.children = append(b.children, c)
	return c
}

// Start adds the "start" pseudo-state with an auto transition to dest.
func (b *Builder) Start(dest string) *Builder {
	b.State(domain.StartState).On(domain.EventAuto).Go(dest)
	return b
}

// Entry appends an entry action.
func (b *Builder) Entry(name string, args ...string) *Builder {
	b.entry = append(b.entry, domain.ActionDescriptor{Name: name, Args: args})
	return b
}

// Exit appends an exit action.
func (b *Builder) Exit(name string, args ...string) *Builder {
	b.exit = append(b.exit, domain.ActionDescriptor{Name: name, Args: args})
	return b
}

// On starts a transition triggered by event. Finish it with Go.
func (b *Builder) On(event string) *TransitionBuilder {
	t := &TransitionBuilder{state: b, def: domain.TransitionDefinition{Event: event}}
	b.transitions = append(b.transitions, t)
	return t
}

// Up returns the parent builder, or b itself for the root.
func (b *Builder) Up() *Builder {
	if b.parent == nil {
		return b
	}
	return b.parent
}

// Root returns the root builder.
func (b *Builder) Root() *Builder {
	for b.parent != nil {
		b = b.parent
	}
	return b
}

// Definition converts the builder tree, starting at b, into a StateDefinition.
func (b *Builder) Definition() domain.StateDefinition {
	def := domain.StateDefinition{
		Name:   b.name,
		Events: b.events,
		Entry:  b.entry,
		Exit:   b.exit,
	}
	for _, c := range b.children {
		def.States = append(def.States, c.Definition())
	}
	for _, t := range b.transitions {
		def.Transitions = append(def.Transitions, t.def)
	}
	return def
}

// Build compiles the whole tree into a memory loader.
func (b *Builder) Build() *memory.Loader {
	return memory.NewLoader(b.Root().Definition())
}

// TransitionBuilder configures one transition.
type TransitionBuilder struct {
	state *Builder
	def   domain.TransitionDefinition
}

// Named sets the transition name used in diagnostics.
func (t *TransitionBuilder) Named(name string) *TransitionBuilder {
	t.def.Name = name
	return t
}

// When appends a guard condition.
func (t *TransitionBuilder) When(name string, args ...string) *TransitionBuilder {
	t.def.Conditions = append(t.def.Conditions, domain.ActionDescriptor{Name: name, Args: args})
	return t
}

// Do appends a transition action.
func (t *TransitionBuilder) Do(name string, args ...string) *TransitionBuilder {
	t.def.Actions = append(t.def.Actions, domain.ActionDescriptor{Name: name, Args: args})
	return t
}

// Go sets the destination and returns the owning state builder.
func (t *TransitionBuilder) Go(dest string) *Builder {
	t.def.Destination = dest
	return t.state
}
