package domain

import "strings"

// ActionDescriptor references a user function by name together with the
// positional arguments it is called with.
type ActionDescriptor struct {
	Name string   `json:"name" yaml:"name" mapstructure:"name"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// String renders the descriptor as name(arg1,arg2) for diagnostics.
func (a ActionDescriptor) String() string {
	return a.Name + "(" + strings.Join(a.Args, ",") + ")"
}

// TransitionDefinition describes one named, event-triggered edge leaving the
// state it is declared on.
type TransitionDefinition struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Event string `json:"event" yaml:"event"`

	// Conditions must all evaluate true for the transition to activate.
	// An empty list is always true.
	Conditions []ActionDescriptor `json:"cond,omitempty" yaml:"cond,omitempty"`

	// Actions run once, before the source state is exited.
	Actions []ActionDescriptor `json:"acts,omitempty" yaml:"acts,omitempty"`

	// Destination is either a dotted path (absolute) or a bare name resolved
	// against the parent of the source state.
	Destination string `json:"dest" yaml:"dest"`
}

// StateDefinition is the declarative, already parsed description of a state
// and its subtree. Children and transitions keep their declaration order.
type StateDefinition struct {
	Name string `json:"name" yaml:"name"`

	// Events lists the events the machine accepts. Only read on the root.
	Events []string `json:"events,omitempty" yaml:"events,omitempty"`

	Entry       []ActionDescriptor     `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit        []ActionDescriptor     `json:"exit,omitempty" yaml:"exit,omitempty"`
	States      []StateDefinition      `json:"states,omitempty" yaml:"states,omitempty"`
	Transitions []TransitionDefinition `json:"tran,omitempty" yaml:"tran,omitempty"`
}

// Child returns the direct child with the given name.
func (d *StateDefinition) Child(name string) (*StateDefinition, bool) {
	for i := range d.States {
		if d.States[i].Name == name {
			return &d.States[i], true
		}
	}
	return nil, false
}

// ActionNames returns every action and condition name referenced in the
// subtree, in first-seen order and without duplicates.
func (d *StateDefinition) ActionNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(list []ActionDescriptor) {
		for _, a := range list {
			if !seen[a.Name] {
				seen[a.Name] = true
				names = append(names, a.Name)
			}
		}
	}

	var walk func(s *StateDefinition)
	walk = func(s *StateDefinition) {
		add(s.Entry)
		add(s.Exit)
		for _, t := range s.Transitions {
			add(t.Conditions)
			add(t.Actions)
		}
		for i := range s.States {
			walk(&s.States[i])
		}
	}
	walk(d)
	return names
}

// LastSegment returns the local name of a dotted state path.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, PathSeparator); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsQualified reports whether a destination is written as a dotted path.
func IsQualified(path string) bool {
	return strings.Contains(path, PathSeparator)
}
