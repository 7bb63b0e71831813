package ports

import (
	"context"
	"errors"
)

// ErrSourceClosed is returned by an EventSource that will not yield more events.
var ErrSourceClosed = errors.New("event source closed")

// EventSource yields event names from outside the process.
type EventSource interface {
	// Receive blocks until an event is available, the context is done,
	// or the source is closed (ErrSourceClosed).
	Receive(ctx context.Context) (string, error)

	// Publish appends an event to the source. Producers and tests use it;
	// the machine only receives.
	Publish(ctx context.Context, event string) error

	// Close releases the source. Pending Receive calls return ErrSourceClosed.
	Close() error
}
