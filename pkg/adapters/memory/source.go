package memory

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultCapacity is the buffer size of a Source created with NewSource(0).
const DefaultCapacity = 64

// Source implements ports.EventSource with a buffered channel.
type Source struct {
	events chan string
	done   chan struct{}
	once   sync.Once
}

// NewSource creates a source buffering up to capacity events.
func NewSource(capacity int) *Source {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Source{
		events: make(chan string, capacity),
		done:   make(chan struct{}),
	}
}

// Receive blocks until an event is published.
func (s *Source) Receive(ctx context.Context) (string, error) {
	select {
	case <-s.done:
		return "", ports.ErrSourceClosed
	default:
	}
	select {
	case event := <-s.events:
		return event, nil
	case <-s.done:
		return "", ports.ErrSourceClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Publish blocks while the buffer is full.
func (s *Source) Publish(ctx context.Context, event string) error {
	select {
	case <-s.done:
		return ports.ErrSourceClosed
	default:
	}
	select {
	case s.events <- event:
		return nil
	case <-s.done:
		return ports.ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close wakes up pending receivers. It is safe to call more than once.
func (s *Source) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
