package observability

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by machine lifecycle hooks.
type Metrics struct {
	StateEnters        *prometheus.CounterVec
	StateExits         *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	DroppedEvents      *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StateEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canopy",
				Name:      "state_enters_total",
				Help:      "Total number of state entries",
			},
			[]string{"state"},
		),
		StateExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canopy",
				Name:      "state_exits_total",
				Help:      "Total number of state exits",
			},
			[]string{"state"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canopy",
				Name:      "transitions_total",
				Help:      "Total number of transitions taken by the machine cursor",
			},
			[]string{"event", "to"},
		),
		DroppedEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canopy",
				Name:      "dropped_events_total",
				Help:      "Events that matched no transition",
			},
			[]string{"event"},
		),
		TransitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "canopy",
				Name:      "transition_duration_seconds",
				Help:      "Time spent dispatching an event and entering its destination",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"event"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.StateEnters, m.StateExits, m.Transitions, m.DroppedEvents, m.TransitionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.StateEnters.WithLabelValues(e.Path).Inc()
		},
		OnStateExit: func(ctx context.Context, e *domain.StateEvent) {
			m.StateExits.WithLabelValues(e.Path).Inc()
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.Event, e.To).Inc()
			m.TransitionDuration.WithLabelValues(e.Event).Observe(e.Took.Seconds())
		},
		OnEventDropped: func(ctx context.Context, e *domain.DroppedEvent) {
			m.DroppedEvents.WithLabelValues(e.Event).Inc()
		},
	}
}
