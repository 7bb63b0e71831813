package ports

import "context"

// Machine is the surface that transport adapters drive.
type Machine interface {
	// ID identifies the machine instance.
	ID() string

	// Enqueue validates and queues an event without processing it.
	Enqueue(event string) error

	// Send queues an event and runs one processing round.
	// It reports whether the machine changed state.
	Send(ctx context.Context, event string) (bool, error)

	// CurrentPath returns the absolute path of the active leaf state.
	CurrentPath() string

	// Events returns the declared events.
	Events() []string

	// StatePaths returns every state path in declaration order.
	StatePaths() []string
}
