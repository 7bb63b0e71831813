package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/canopy/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultKey is the list that holds pending events.
const DefaultKey = "canopy:events"

// Source implements ports.EventSource on top of a Redis list.
// Producers RPUSH event names; Receive pops them with BLPOP.
type Source struct {
	client *backend.Client
	key    string
	poll   time.Duration
	owned  bool
	closed atomic.Bool
}

type Option func(*Source)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(s *Source) {
		if key != "" {
			s.key = key
		}
	}
}

// WithPollTimeout sets how long a single BLPOP blocks before the context
// and the closed flag are checked again. Redis rounds it to whole seconds.
func WithPollTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.poll = d
		}
	}
}

// New creates a source with its own client. Close closes the client.
func New(address, password string, db int, opts ...Option) *Source {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	s := NewFromClient(rdb, opts...)
	s.owned = true
	return s
}

// NewFromClient creates a source from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Source {
	s := &Source{
		client: client,
		key:    DefaultKey,
		poll:   time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the list key.
func (s *Source) Key() string {
	return s.key
}

// Receive pops the oldest event, waiting for one to arrive.
func (s *Source) Receive(ctx context.Context) (string, error) {
	for {
		if s.closed.Load() {
			return "", ports.ErrSourceClosed
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := s.client.BLPop(ctx, s.poll, s.key).Result()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			if s.closed.Load() {
				return "", ports.ErrSourceClosed
			}
			return "", fmt.Errorf("failed to pop event from %s: %w", s.key, err)
		}
		// BLPOP replies with [key, value].
		if len(res) != 2 {
			return "", fmt.Errorf("unexpected BLPOP reply: %v", res)
		}
		return res[1], nil
	}
}

// Publish appends an event to the list.
func (s *Source) Publish(ctx context.Context, event string) error {
	if s.closed.Load() {
		return ports.ErrSourceClosed
	}
	if err := s.client.RPush(ctx, s.key, event).Err(); err != nil {
		return fmt.Errorf("failed to push event to %s: %w", s.key, err)
	}
	return nil
}

// Close marks the source closed. The client is closed only when the source
// created it.
func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owned {
		return s.client.Close()
	}
	return nil
}
