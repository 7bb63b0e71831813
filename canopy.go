package canopy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/timer"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/canopy"

// Machine is the high-level entry point of the library.
// It owns the state tree built from a definition, the cursor pointing at
// the active leaf state, the event queue and the timers.
//
// Events may be enqueued from any goroutine. They are only dispatched by
// ProcessEvents, Send or Run, one processing round at a time.
type Machine struct {
	id       string
	tree     *runtime.Tree
	reg      *registry.Registry
	logger   *slog.Logger
	diag     runtime.DiagnosticsConfig
	cascade  runtime.CascadePolicy
	hooks    domain.LifecycleHooks
	tracer   trace.Tracer
	period   time.Duration
	timers   *timer.Manager
	builtins bool

	mu      sync.Mutex // guards current and started
	current runtime.State
	started bool
	stopped atomic.Bool

	qmu   sync.Mutex
	queue []string

	vmu  sync.RWMutex
	vars map[string]string
}

// New builds a machine from a definition and the registry that provides its
// actions and conditions. Construction errors are joined into one error, each
// wrapping domain.ErrInvalidDefinition.
func New(def domain.StateDefinition, reg *registry.Registry, opts ...Option) (*Machine, error) {
	if reg == nil {
		reg = registry.New()
	}
	m := &Machine{
		id:     uuid.NewString(),
		reg:    reg,
		period: DefaultPeriod,
		tracer: otel.Tracer(tracerName),
		vars:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	m.logger = m.logger.With("machine_id", m.id)

	tree, errs := runtime.Build(def, reg,
		runtime.WithLogger(m.logger),
		runtime.WithDiagnostics(m.diag),
		runtime.WithCascade(m.cascade),
		runtime.WithHooks(m.stamp(m.hooks)),
	)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	m.tree = tree
	m.timers = timer.New(m.fireTimer, timer.WithLogger(m.logger))

	if m.builtins {
		RegisterBuiltins(reg, m)
	}
	return m, nil
}

// Build constructs and validates a state tree without creating a machine.
// It is useful for tooling that only inspects definitions.
func Build(def domain.StateDefinition, reg *registry.Registry, opts ...runtime.Option) (*runtime.Tree, []error) {
	if reg == nil {
		reg = registry.New()
	}
	return runtime.Build(def, reg, opts...)
}

// stamp fills in the machine ID of every event before the user hooks see it.
func (m *Machine) stamp(h domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	if fn := h.OnStateEnter; fn != nil {
		out.OnStateEnter = func(ctx context.Context, e *domain.StateEvent) {
			e.MachineID = m.id
			fn(ctx, e)
		}
	}
	if fn := h.OnStateExit; fn != nil {
		out.OnStateExit = func(ctx context.Context, e *domain.StateEvent) {
			e.MachineID = m.id
			fn(ctx, e)
		}
	}
	out.OnTransition = h.OnTransition
	out.OnEventDropped = h.OnEventDropped
	return out
}

// ID returns the machine instance ID.
func (m *Machine) ID() string {
	return m.id
}

// Tree returns the immutable state tree.
func (m *Machine) Tree() *runtime.Tree {
	return m.tree
}

// Registry returns the action registry.
func (m *Machine) Registry() *registry.Registry {
	return m.reg
}

// Logger returns the machine logger.
func (m *Machine) Logger() *slog.Logger {
	return m.logger
}

// Start enters the root state and settles into the initial leaf.
// Calling Start on a started machine is a no-op.
func (m *Machine) Start(ctx context.Context) error {
	if m.stopped.Load() {
		return domain.ErrMachineStopped
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	leaf, err := m.tree.Root().Enter(ctx)
	if err != nil {
		return fmt.Errorf("failed to start machine: %w", err)
	}
	m.current = leaf
	m.started = true
	m.logger.Debug("Machine started", "state", leaf.Path())
	return nil
}

// Current returns the active leaf state. It is the zero State before Start.
func (m *Machine) Current() runtime.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentPath returns the absolute path of the active leaf state.
func (m *Machine) CurrentPath() string {
	return m.Current().Path()
}

// Lookup resolves an absolute state path.
func (m *Machine) Lookup(path string) (runtime.State, bool) {
	return m.tree.Lookup(path)
}

// Events returns the declared events.
func (m *Machine) Events() []string {
	return m.tree.Events()
}

// StatePaths returns every state path in declaration order.
func (m *Machine) StatePaths() []string {
	states := m.tree.States()
	paths := make([]string, len(states))
	for i, s := range states {
		paths[i] = s.Path()
	}
	return paths
}

// Done reports whether the machine stopped or settled in a terminal state.
func (m *Machine) Done() bool {
	if m.stopped.Load() {
		return true
	}
	cur := m.Current()
	return cur.Valid() && cur.IsTerminal()
}

// Stopped reports whether Cleanup ran.
func (m *Machine) Stopped() bool {
	return m.stopped.Load()
}

// Enqueue queues an event for the next processing round.
// Events not declared by the root definition are rejected with
// domain.ErrUnknownEvent.
func (m *Machine) Enqueue(event string) error {
	if m.stopped.Load() {
		return domain.ErrMachineStopped
	}
	if !m.tree.DeclaresEvent(event) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEvent, event)
	}
	m.qmu.Lock()
	m.queue = append(m.queue, event)
	m.qmu.Unlock()
	return nil
}

// Pending returns the number of queued events.
func (m *Machine) Pending() int {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	return len(m.queue)
}

func (m *Machine) pop() (string, bool) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if len(m.queue) == 0 {
		return "", false
	}
	event := m.queue[0]
	m.queue = m.queue[1:]
	return event, true
}

// Send queues an event and runs one processing round.
func (m *Machine) Send(ctx context.Context, event string) (bool, error) {
	if err := m.Enqueue(event); err != nil {
		return false, err
	}
	return m.ProcessEvents(ctx)
}

// ProcessEvents runs one processing round. Queued events are consumed in
// order until one of them causes a transition; events that match nothing are
// dropped. When no queued event fired, "auto" is tried on the current state.
// The destination of a transition is then entered and becomes the current
// state. It reports whether a transition was taken.
//
// A terminal current state (named "final" or "end_state") leaves the queue
// untouched. On error the cursor is not moved.
func (m *Machine) ProcessEvents(ctx context.Context) (changed bool, err error) {
	if m.stopped.Load() {
		return false, domain.ErrMachineStopped
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return false, domain.ErrNotStarted
	}
	if m.current.IsTerminal() {
		return false, nil
	}

	ctx, span := m.tracer.Start(ctx, "canopy.ProcessEvents", trace.WithAttributes(
		attribute.String("canopy.machine_id", m.id),
		attribute.String("canopy.state", m.current.Path()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	began := time.Now()
	from := m.current
	var event, dest string
	for {
		next, ok := m.pop()
		if !ok {
			break
		}
		if next == domain.EventExitAllStates {
			return true, m.shutdown(ctx)
		}
		dest, err = from.ProcessEvent(ctx, next)
		if err != nil {
			return false, fmt.Errorf("event '%s' in '%s': %w", next, from.Path(), err)
		}
		if dest != "" {
			event = next
			break
		}
		m.dropped(ctx, next)
	}

	if dest == "" {
		dest, err = from.ProcessEvent(ctx, domain.EventAuto)
		if err != nil {
			return false, fmt.Errorf("auto in '%s': %w", from.Path(), err)
		}
		if dest == "" {
			return false, nil
		}
		event = domain.EventAuto
	}

	target, ok := m.tree.Lookup(dest)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownState, dest)
	}
	leaf, err := target.Enter(ctx)
	if err != nil {
		return false, err
	}
	m.current = leaf

	m.logger.Debug("Transition taken", "event", event, "from", from.Path(), "to", leaf.Path())
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, MachineID: m.id},
			Event:     event,
			From:      from.Path(),
			To:        leaf.Path(),
			Took:      time.Since(began),
		})
	}
	return true, nil
}

func (m *Machine) dropped(ctx context.Context, event string) {
	m.logger.Debug("Event dropped", "event", event, "state", m.current.Path())
	if m.hooks.OnEventDropped != nil {
		m.hooks.OnEventDropped(ctx, &domain.DroppedEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDropped, MachineID: m.id},
			Event:     event,
			State:     m.current.Path(),
		})
	}
}

// Run processes events every period until the context is done, the machine
// stops, or it settles in a terminal state.
func (m *Machine) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		if m.Done() {
			return nil
		}
		if _, err := m.ProcessEvents(ctx); err != nil {
			if errors.Is(err, domain.ErrMachineStopped) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cleanup stops all timers, runs the exit actions of the current state and of
// every ancestor up to the root, then enters "end_state" when the root
// declares one. No event is processed afterwards.
func (m *Machine) Cleanup(ctx context.Context) error {
	if m.stopped.Load() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown(ctx)
}

// shutdown expects m.mu to be held.
func (m *Machine) shutdown(ctx context.Context) error {
	if m.stopped.Swap(true) {
		return nil
	}
	m.timers.Stop()
	m.qmu.Lock()
	m.queue = nil
	m.qmu.Unlock()

	if !m.started {
		return nil
	}
	if m.current.Name() == domain.EndState {
		return nil
	}
	if err := m.current.ExitAll(ctx); err != nil {
		return fmt.Errorf("failed to exit states: %w", err)
	}

	end, ok := m.tree.Root().SubState(domain.EndState)
	if !ok {
		m.logger.Debug("Machine stopped", "state", m.current.Path())
		return nil
	}
	leaf, err := end.Enter(ctx)
	if err != nil {
		return fmt.Errorf("failed to enter %s: %w", domain.EndState, err)
	}
	m.current = leaf
	m.logger.Debug("Machine stopped", "state", leaf.Path())
	return nil
}

// AddTimer starts a timer that enqueues event after each period.
// repetitions below 1 fire once, timer.Forever repeats until removed.
func (m *Machine) AddTimer(event string, period time.Duration, repetitions int) (int, error) {
	if !m.tree.DeclaresEvent(event) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownEvent, event)
	}
	return m.timers.Add(event, period, repetitions)
}

// RemoveTimer stops the timer with the given id.
func (m *Machine) RemoveTimer(id int) bool {
	return m.timers.Remove(id)
}

// RemoveTimerByEvent stops the oldest timer that enqueues event.
func (m *Machine) RemoveTimerByEvent(event string) bool {
	return m.timers.RemoveByEvent(event)
}

func (m *Machine) fireTimer(event string) {
	if err := m.Enqueue(event); err != nil && !errors.Is(err, domain.ErrMachineStopped) {
		m.logger.Warn("Timer event rejected", "event", event, "error", err)
	}
}

// Var returns a machine variable set by the "set" builtin.
func (m *Machine) Var(name string) (string, bool) {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	v, ok := m.vars[name]
	return v, ok
}

// SetVar assigns a machine variable.
func (m *Machine) SetVar(name, value string) {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.vars[name] = value
}

// UnsetVar removes a machine variable.
func (m *Machine) UnsetVar(name string) {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	delete(m.vars, name)
}
