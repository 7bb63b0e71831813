package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockMachine for testing
type MockMachine struct {
	state   string
	queued  []string
	stopped bool
	sendErr error
}

func (m *MockMachine) ID() string { return "m-1" }
func (m *MockMachine) Enqueue(event string) error {
	if m.stopped {
		return domain.ErrMachineStopped
	}
	if event == "bogus" {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEvent, event)
	}
	m.queued = append(m.queued, event)
	return nil
}
func (m *MockMachine) Send(ctx context.Context, event string) (bool, error) {
	if err := m.Enqueue(event); err != nil {
		return false, err
	}
	if m.sendErr != nil {
		return false, m.sendErr
	}
	if event == "button" {
		m.state = "root.Crossing.Countdown"
		return true, nil
	}
	return false, nil
}
func (m *MockMachine) CurrentPath() string  { return m.state }
func (m *MockMachine) Events() []string     { return []string{"button", "halt"} }
func (m *MockMachine) StatePaths() []string { return []string{"root", "root.Crossing"} }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	h := NewHandler(&MockMachine{state: "root.Crossing.Flowing"})

	w := do(t, h, "GET", "/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "m-1", resp.MachineID)
	assert.Equal(t, "root.Crossing.Flowing", resp.State)
	assert.Nil(t, resp.Changed)
}

func TestListings(t *testing.T) {
	h := NewHandler(&MockMachine{})

	w := do(t, h, "GET", "/states", "")
	assert.JSONEq(t, `["root", "root.Crossing"]`, w.Body.String())

	w = do(t, h, "GET", "/events", "")
	assert.JSONEq(t, `["button", "halt"]`, w.Body.String())
}

func TestSendEvent(t *testing.T) {
	m := &MockMachine{state: "root.Crossing.Flowing"}
	h := NewHandler(m)

	w := do(t, h, "POST", "/events", `{"event": "button"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"machine_id": "m-1", "state": "root.Crossing.Countdown", "changed": true}`, w.Body.String())

	w = do(t, h, "POST", "/events", `{"event": "halt", "queue": true}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"button", "halt"}, m.queued)
}

func TestSendEvent_Errors(t *testing.T) {
	cases := []struct {
		name    string
		machine *MockMachine
		body    string
		status  int
	}{
		{"Malformed", &MockMachine{}, `{`, http.StatusBadRequest},
		{"MissingEvent", &MockMachine{}, `{}`, http.StatusBadRequest},
		{"UnknownEvent", &MockMachine{}, `{"event": "bogus"}`, http.StatusBadRequest},
		{"Stopped", &MockMachine{stopped: true}, `{"event": "button"}`, http.StatusConflict},
		{"ActionFailure", &MockMachine{sendErr: &domain.MissingActionError{Name: "ghost"}}, `{"event": "button"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, NewHandler(tc.machine), "POST", "/events", tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "canopy_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	w := do(t, NewHandler(&MockMachine{}, WithMetrics(reg)), "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "canopy_test_total 1")

	w = do(t, NewHandler(&MockMachine{}), "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, NewHandler(&MockMachine{}), "OPTIONS", "/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
