package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EventSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.EventSource.
// newSource must return a fresh, empty source for each call.
func EventSourceContractTest(t *testing.T, newSource func(t *testing.T) ports.EventSource) {
	t.Helper()

	t.Run("FIFO", func(t *testing.T) {
		src := newSource(t)
		defer src.Close()
		ctx := context.Background()

		for _, e := range []string{"one", "two", "three"} {
			require.NoError(t, src.Publish(ctx, e))
		}
		for _, want := range []string{"one", "two", "three"} {
			got, err := src.Receive(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("Receive_ContextDone", func(t *testing.T) {
		src := newSource(t)
		defer src.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := src.Receive(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled),
			"expected context error, got %v", err)
	})

	t.Run("Receive_AfterClose", func(t *testing.T) {
		src := newSource(t)
		require.NoError(t, src.Close())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := src.Receive(ctx)
		assert.ErrorIs(t, err, ports.ErrSourceClosed)
	})
}
