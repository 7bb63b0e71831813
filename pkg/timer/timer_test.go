package timer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu     sync.Mutex
	events []string
}

func (s *sink) fire(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *sink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestAdd_FiresRepetitions(t *testing.T) {
	s := &sink{}
	m := timer.New(s.fire)
	defer m.Stop()

	id, err := m.Add("tick", 5*time.Millisecond, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	assert.Eventually(t, func() bool { return s.count("tick") == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, s.count("tick"))
}

func TestAdd_DefaultsToOnce(t *testing.T) {
	s := &sink{}
	m := timer.New(s.fire)
	defer m.Stop()

	_, err := m.Add("once", 5*time.Millisecond, 0)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.count("once") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, s.count("once"))
}

func TestAdd_ForeverUntilRemoved(t *testing.T) {
	s := &sink{}
	m := timer.New(s.fire)
	defer m.Stop()

	id, err := m.Add("beat", 2*time.Millisecond, timer.Forever)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.count("beat") >= 5 }, time.Second, 2*time.Millisecond)
	assert.True(t, m.Remove(id))
	assert.False(t, m.Remove(id))

	time.Sleep(10 * time.Millisecond)
	seen := s.count("beat")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seen, s.count("beat"))
}

func TestAdd_InvalidPeriod(t *testing.T) {
	m := timer.New(func(string) {})
	defer m.Stop()

	_, err := m.Add("bad", 0, 1)
	assert.Error(t, err)
}

func TestRemoveByEvent(t *testing.T) {
	m := timer.New(func(string) {})
	defer m.Stop()

	first, err := m.Add("a", time.Hour, 1)
	require.NoError(t, err)
	second, err := m.Add("a", time.Hour, 1)
	require.NoError(t, err)
	_, err = m.Add("b", time.Hour, 1)
	require.NoError(t, err)

	assert.True(t, m.RemoveByEvent("a"))
	assert.False(t, m.Remove(first))
	assert.True(t, m.Remove(second))
	assert.False(t, m.RemoveByEvent("a"))
	assert.Equal(t, 1, m.Len())
}

func TestStop(t *testing.T) {
	m := timer.New(func(string) {})
	_, err := m.Add("a", time.Hour, timer.Forever)
	require.NoError(t, err)

	m.Stop()
	assert.Equal(t, 0, m.Len())

	_, err = m.Add("b", time.Millisecond, 1)
	assert.Error(t, err)
}
