package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStateExit  EventType = "state_exit"
	EventTransition EventType = "transition"
	EventDropped    EventType = "event_dropped"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	MachineID string    `json:"machine_id"`
}

// StateEvent represents entry to or exit from a state.
type StateEvent struct {
	EventBase
	Path string `json:"path"`
}

// TransitionEvent represents a completed transition of the machine cursor.
type TransitionEvent struct {
	EventBase
	Event string        `json:"event"`
	From  string        `json:"from"`
	To    string        `json:"to"`
	Took  time.Duration `json:"took"`
}

// DroppedEvent represents an event that did not cause any transition.
type DroppedEvent struct {
	EventBase
	Event string `json:"event"`
	State string `json:"state"`
}

// LifecycleHooks defines callbacks for machine observability.
type LifecycleHooks struct {
	OnStateEnter   func(context.Context, *StateEvent)
	OnStateExit    func(context.Context, *StateEvent)
	OnTransition   func(context.Context, *TransitionEvent)
	OnEventDropped func(context.Context, *DroppedEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:   chain(h.OnStateEnter, other.OnStateEnter),
		OnStateExit:    chain(h.OnStateExit, other.OnStateExit),
		OnTransition:   chain(h.OnTransition, other.OnTransition),
		OnEventDropped: chain(h.OnEventDropped, other.OnEventDropped),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
