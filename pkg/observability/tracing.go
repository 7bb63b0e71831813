package observability

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingHooks records lifecycle events on the span carried by the hook
// context. The machine starts one span per processing round, so entries,
// exits and the resulting transition show up as events of that span.
func TracingHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			trace.SpanFromContext(ctx).AddEvent("state.enter", trace.WithAttributes(
				attribute.String("canopy.state", e.Path),
			))
		},
		OnStateExit: func(ctx context.Context, e *domain.StateEvent) {
			trace.SpanFromContext(ctx).AddEvent("state.exit", trace.WithAttributes(
				attribute.String("canopy.state", e.Path),
			))
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			span := trace.SpanFromContext(ctx)
			span.AddEvent("transition", trace.WithAttributes(
				attribute.String("canopy.event", e.Event),
				attribute.String("canopy.from", e.From),
				attribute.String("canopy.to", e.To),
			))
			span.SetAttributes(attribute.String("canopy.state", e.To))
		},
		OnEventDropped: func(ctx context.Context, e *domain.DroppedEvent) {
			trace.SpanFromContext(ctx).AddEvent("event.dropped", trace.WithAttributes(
				attribute.String("canopy.event", e.Event),
			))
		},
	}
}
