package canopy

import (
	"context"
	"errors"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Pump moves events from src into the machine queue until the context is
// done, the source closes or the machine stops. Undeclared events are logged
// and skipped. Processing is left to Run.
func Pump(ctx context.Context, src ports.EventSource, m *Machine) error {
	for {
		event, err := src.Receive(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrSourceClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := m.Enqueue(event); err != nil {
			if errors.Is(err, domain.ErrMachineStopped) {
				return nil
			}
			m.logger.Warn("Dropping event from source", "event", event, "error", err)
		}
	}
}
