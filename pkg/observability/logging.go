package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Info level, except dropped
// events which are logged at Debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.InfoContext(ctx, "state_enter", "machine_id", e.MachineID, "state", e.Path)
		},
		OnStateExit: func(ctx context.Context, e *domain.StateEvent) {
			logger.InfoContext(ctx, "state_exit", "machine_id", e.MachineID, "state", e.Path)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"machine_id", e.MachineID,
				"event", e.Event,
				"from", e.From,
				"to", e.To,
				"took", e.Took,
			)
		},
		OnEventDropped: func(ctx context.Context, e *domain.DroppedEvent) {
			logger.DebugContext(ctx, "event_dropped", "machine_id", e.MachineID, "event", e.Event, "state", e.State)
		},
	}
}
