// Package timer schedules named events that are handed back to a callback
// after a period, once or repeatedly.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
)

// Forever makes a timer repeat until it is removed.
const Forever = -1

// Fire receives the event of an expired timer.
type Fire func(event string)

type entry struct {
	id     int
	event  string
	period time.Duration
	stop   chan struct{}
}

// Manager owns a set of running timers. Each timer runs on its own ticker
// goroutine; Fire is called from those goroutines.
type Manager struct {
	mu      sync.Mutex
	fire    Fire
	logger  *slog.Logger
	nextID  int
	timers  map[int]*entry
	wg      sync.WaitGroup
	stopped bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report timer activity.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager that delivers expired events to fire.
func New(fire Fire, opts ...Option) *Manager {
	m := &Manager{
		fire:   fire,
		logger: logging.NewNop(),
		timers: make(map[int]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add starts a timer that fires event after each period. repetitions is the
// number of times it fires; values below 1 other than Forever fire once.
// It returns the timer id.
func (m *Manager) Add(event string, period time.Duration, repetitions int) (int, error) {
	if period <= 0 {
		return 0, fmt.Errorf("timer for '%s': period must be positive, got %s", event, period)
	}
	if repetitions == 0 || repetitions < Forever {
		repetitions = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return 0, fmt.Errorf("timer for '%s': manager stopped", event)
	}

	e := &entry{id: m.nextID, event: event, period: period, stop: make(chan struct{})}
	m.nextID++
	m.timers[e.id] = e

	m.wg.Add(1)
	go m.run(e, repetitions)

	m.logger.Debug("Timer added", "id", e.id, "event", event, "period", period, "repetitions", repetitions)
	return e.id, nil
}

func (m *Manager) run(e *entry, remaining int) {
	defer m.wg.Done()
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}
		select {
		case <-e.stop:
			return
		default:
		}

		last := false
		if remaining != Forever {
			remaining--
			last = remaining <= 0
		}
		if last {
			// Drop the timer before firing so a handler that re-adds the
			// same event does not race with this one.
			if !m.forget(e) {
				return
			}
		}
		m.fire(e.event)
		if last {
			return
		}
	}
}

// forget removes e if it is still registered. It reports false when e was
// already removed.
func (m *Manager) forget(e *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[e.id]; !ok {
		return false
	}
	delete(m.timers, e.id)
	return true
}

// Remove stops the timer with the given id.
func (m *Manager) Remove(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.timers[id]
	if !ok {
		return false
	}
	delete(m.timers, id)
	close(e.stop)
	return true
}

// RemoveByEvent stops the oldest timer that fires event.
func (m *Manager) RemoveByEvent(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	var victim *entry
	for _, e := range m.timers {
		if e.event == event && (victim == nil || e.id < victim.id) {
			victim = e
		}
	}
	if victim == nil {
		return false
	}
	delete(m.timers, victim.id)
	close(victim.stop)
	return true
}

// Len returns the number of active timers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Stop cancels every timer and waits for their goroutines to exit.
// Add fails after Stop.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	for id, e := range m.timers {
		delete(m.timers, id)
		close(e.stop)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
