package runtime

import (
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// CascadePolicy selects how many states a transition exits and enters.
type CascadePolicy int

const (
	// CascadeNone exits only the source state of the transition taken and
	// enters only its destination (plus the destination's start chain).
	CascadeNone CascadePolicy = iota

	// CascadeAncestors exits every state from the active leaf up to the least
	// common ancestor of source and destination, and enters every state below
	// that ancestor down to the destination.
	CascadeAncestors
)

func (p CascadePolicy) String() string {
	switch p {
	case CascadeAncestors:
		return "ancestors"
	default:
		return "none"
	}
}

// Option defines a functional option for configuring a Tree.
type Option func(*Tree)

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithDiagnostics enables the given debug flags.
func WithDiagnostics(cfg DiagnosticsConfig) Option {
	return func(t *Tree) {
		t.diag = cfg
	}
}

// WithCascade configures the exit/entry cascade policy.
func WithCascade(policy CascadePolicy) Option {
	return func(t *Tree) {
		t.cascade = policy
	}
}

// WithHooks registers lifecycle callbacks fired on state entry and exit.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Tree) {
		t.hooks = hooks
	}
}
