package canopy

import (
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPeriod is the processing period used by Run.
const DefaultPeriod = 10 * time.Millisecond

// Option defines a functional option for configuring a Machine.
type Option func(*Machine)

// WithLogger sets a custom structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithDiagnostics enables debug tracing flags. The logger must accept
// Debug records for the output to appear.
func WithDiagnostics(cfg runtime.DiagnosticsConfig) Option {
	return func(m *Machine) {
		m.diag = cfg
	}
}

// WithAncestorCascade makes transitions exit every state from the active
// leaf up to the common ancestor of source and destination, and enter every
// state below it. By default only the transition source is exited.
func WithAncestorCascade() Option {
	return func(m *Machine) {
		m.cascade = runtime.CascadeAncestors
	}
}

// WithLifecycleHooks registers observability hooks. It can be given more
// than once; hooks are merged in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithPeriod sets how often Run processes queued events.
func WithPeriod(period time.Duration) Option {
	return func(m *Machine) {
		if period > 0 {
			m.period = period
		}
	}
}

// WithTracer sets the OpenTelemetry tracer used for processing spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Machine) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// WithID overrides the generated machine instance ID.
func WithID(id string) Option {
	return func(m *Machine) {
		if id != "" {
			m.id = id
		}
	}
}

// WithBuiltins registers the built-in actions (see RegisterBuiltins) on the
// machine's registry.
func WithBuiltins() Option {
	return func(m *Machine) {
		m.builtins = true
	}
}
