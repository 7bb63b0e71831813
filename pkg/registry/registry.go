// Package registry resolves the named actions and conditions referenced by a
// state definition to the functions supplied by the embedding application.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// ActionFunc defines the signature of an action or condition.
// It receives the positional arguments of its descriptor. The boolean result
// is only meaningful for conditions; actions may return anything.
type ActionFunc func(ctx context.Context, args []string) (bool, error)

// Registry manages the available actions.
// It is safe for concurrent use; registration normally happens once at startup.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		actions: make(map[string]ActionFunc),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterCommand adds an action whose result is always true.
func (r *Registry) RegisterCommand(name string, fn func(ctx context.Context, args []string) error) {
	r.Register(name, func(ctx context.Context, args []string) (bool, error) {
		if err := fn(ctx, args); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the names that are not registered, preserving their order.
func (r *Registry) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Invoke runs every descriptor in order and reports whether all of them
// returned true. An empty list is vacuously true.
// A name that is not registered aborts the list with a *domain.MissingActionError.
func (r *Registry) Invoke(ctx context.Context, descriptors []domain.ActionDescriptor) (bool, error) {
	all := true
	for _, d := range descriptors {
		ok, err := r.call(ctx, d)
		if err != nil {
			return false, err
		}
		all = all && ok
	}
	return all, nil
}

// Check evaluates guard conditions in order and stops at the first false one.
func (r *Registry) Check(ctx context.Context, conditions []domain.ActionDescriptor) (bool, error) {
	for _, d := range conditions {
		ok, err := r.call(ctx, d)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *Registry) call(ctx context.Context, d domain.ActionDescriptor) (bool, error) {
	fn, ok := r.Lookup(d.Name)
	if !ok {
		return false, &domain.MissingActionError{Name: d.Name}
	}
	ok, err := fn(ctx, d.Args)
	if err != nil {
		return false, fmt.Errorf("action %s failed: %w", d, err)
	}
	return ok, nil
}
