// Package compiler decodes serialized machine definitions into
// domain.StateDefinition trees.
package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser converts YAML or JSON documents into a StateDefinition.
//
// States and transitions may be written either as sequences of objects
// (with "name" and "event" keys) or as mappings keyed by state name and
// event. Mapping order is kept, so declaration order is the tie-break in
// both forms. Action descriptors are either a bare name or {name, args}.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a definition document.
func (p *Parser) Parse(data []byte) (domain.StateDefinition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.StateDefinition{}, fmt.Errorf("failed to parse definition: %w", err)
	}
	if len(doc.Content) == 0 {
		return domain.StateDefinition{}, fmt.Errorf("failed to parse definition: empty document")
	}

	def, err := p.state(doc.Content[0], "")
	if err != nil {
		return domain.StateDefinition{}, err
	}
	if def.Name == "" {
		def.Name = domain.RootName
	}
	return def, nil
}

// Marshal encodes a definition in the sequence form accepted by Parse.
func Marshal(def domain.StateDefinition) ([]byte, error) {
	return yaml.Marshal(def)
}

func (p *Parser) state(n *yaml.Node, name string) (domain.StateDefinition, error) {
	def := domain.StateDefinition{Name: name}
	if isNull(n) {
		return def, nil
	}
	if n.Kind != yaml.MappingNode {
		return def, nodeError(n, "state '%s' must be a mapping", name)
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			if name != "" && val.Value != name {
				return def, nodeError(val, "state '%s' declares a different name '%s'", name, val.Value)
			}
			def.Name = val.Value
		case "events":
			err = val.Decode(&def.Events)
		case "entry":
			def.Entry, err = p.actions(val)
		case "exit":
			def.Exit, err = p.actions(val)
		case "states":
			def.States, err = p.states(val)
		case "tran", "transitions":
			def.Transitions, err = p.transitions(val)
		default:
			err = nodeError(key, "unknown key '%s'", key.Value)
		}
		if err != nil {
			if def.Name != "" {
				return def, fmt.Errorf("state '%s': %w", def.Name, err)
			}
			return def, err
		}
	}
	return def, nil
}

func (p *Parser) states(n *yaml.Node) ([]domain.StateDefinition, error) {
	var list []domain.StateDefinition
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := p.state(n.Content[i+1], n.Content[i].Value)
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			child, err := p.state(item, "")
			if err != nil {
				return nil, err
			}
			if child.Name == "" {
				return nil, nodeError(item, "state without name")
			}
			list = append(list, child)
		}
	default:
		if !isNull(n) {
			return nil, nodeError(n, "states must be a mapping or a sequence")
		}
	}
	return list, nil
}

// transitionFields is the loose shape of one transition before the action
// lists are normalized.
type transitionFields struct {
	Name        string `mapstructure:"name"`
	Event       string `mapstructure:"event"`
	Cond        any    `mapstructure:"cond"`
	Conditions  any    `mapstructure:"conditions"`
	Acts        any    `mapstructure:"acts"`
	Actions     any    `mapstructure:"actions"`
	Dest        string `mapstructure:"dest"`
	Destination string `mapstructure:"destination"`
}

func (p *Parser) transitions(n *yaml.Node) ([]domain.TransitionDefinition, error) {
	var list []domain.TransitionDefinition
	switch n.Kind {
	case yaml.SequenceNode:
		for _, item := range n.Content {
			tr, err := p.transition(item, "")
			if err != nil {
				return nil, err
			}
			list = append(list, tr)
		}
	case yaml.MappingNode:
		// event: {dest: ...} or event: [{dest: ...}, {dest: ...}]
		for i := 0; i+1 < len(n.Content); i += 2 {
			event, val := n.Content[i].Value, n.Content[i+1]
			items := []*yaml.Node{val}
			if val.Kind == yaml.SequenceNode {
				items = val.Content
			}
			for _, item := range items {
				tr, err := p.transition(item, event)
				if err != nil {
					return nil, err
				}
				list = append(list, tr)
			}
		}
	default:
		if !isNull(n) {
			return nil, nodeError(n, "transitions must be a mapping or a sequence")
		}
	}
	return list, nil
}

func (p *Parser) transition(n *yaml.Node, event string) (domain.TransitionDefinition, error) {
	if n.Kind == yaml.ScalarNode && event != "" {
		// event: Destination
		return domain.TransitionDefinition{Event: event, Destination: n.Value}, nil
	}

	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return domain.TransitionDefinition{}, nodeError(n, "transition must be a mapping")
	}

	var fields transitionFields
	if err := decode(raw, &fields); err != nil {
		return domain.TransitionDefinition{}, nodeError(n, "invalid transition: %v", err)
	}
	if fields.Event == "" {
		fields.Event = event
	} else if event != "" && fields.Event != event {
		return domain.TransitionDefinition{}, nodeError(n, "transition keyed by '%s' declares event '%s'", event, fields.Event)
	}

	tr := domain.TransitionDefinition{
		Name:        fields.Name,
		Event:       fields.Event,
		Destination: first(fields.Dest, fields.Destination),
	}
	var err error
	if tr.Conditions, err = descriptors(firstAny(fields.Cond, fields.Conditions)); err != nil {
		return tr, nodeError(n, "conditions: %v", err)
	}
	if tr.Actions, err = descriptors(firstAny(fields.Acts, fields.Actions)); err != nil {
		return tr, nodeError(n, "actions: %v", err)
	}
	return tr, nil
}

func (p *Parser) actions(n *yaml.Node) ([]domain.ActionDescriptor, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, nodeError(n, "invalid action list: %v", err)
	}
	list, err := descriptors(raw)
	if err != nil {
		return nil, nodeError(n, "%v", err)
	}
	return list, nil
}

// descriptors normalizes a loosely typed action list: a name, a {name, args}
// mapping, or a sequence of either.
func descriptors(raw any) ([]domain.ActionDescriptor, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		list := make([]domain.ActionDescriptor, 0, len(v))
		for _, item := range v {
			d, err := descriptor(item)
			if err != nil {
				return nil, err
			}
			list = append(list, d)
		}
		return list, nil
	default:
		d, err := descriptor(v)
		if err != nil {
			return nil, err
		}
		return []domain.ActionDescriptor{d}, nil
	}
}

func descriptor(raw any) (domain.ActionDescriptor, error) {
	switch v := raw.(type) {
	case string:
		if strings.ContainsAny(v, "() ") {
			return domain.ActionDescriptor{}, fmt.Errorf("action %q: use {name, args} to pass arguments", v)
		}
		if v == "" {
			return domain.ActionDescriptor{}, fmt.Errorf("empty action name")
		}
		return domain.ActionDescriptor{Name: v}, nil
	case map[string]any:
		var d domain.ActionDescriptor
		if err := decode(v, &d); err != nil {
			return d, err
		}
		if d.Name == "" {
			return d, fmt.Errorf("action without name")
		}
		return d, nil
	default:
		return domain.ActionDescriptor{}, fmt.Errorf("unsupported action %v (%T)", raw, raw)
	}
}

// decode maps a generic map onto a struct. Scalars are coerced to strings
// and a single value is accepted where a list is expected.
func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstAny(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func nodeError(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}
