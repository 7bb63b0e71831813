package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a machine over HTTP.
type Server struct {
	Machine ports.Machine
	logger  *slog.Logger
	metrics prometheus.Gatherer
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// StateResponse is the body of GET /state and of processed events.
type StateResponse struct {
	MachineID string `json:"machine_id"`
	State     string `json:"state"`
	Changed   *bool  `json:"changed,omitempty"`
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	Event string `json:"event"`
	// Queue only enqueues the event and leaves processing to the machine loop.
	Queue bool `json:"queue,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates a new HTTP handler for the machine.
//
//	GET  /state    current leaf state
//	GET  /states   every state path
//	GET  /events   declared events
//	POST /events   send an event
//	GET  /metrics  Prometheus metrics (WithMetrics)
func NewHandler(machine ports.Machine, opts ...Option) http.Handler {
	s := &Server{Machine: machine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/state", s.GetState)
	r.Get("/states", s.ListStates)
	r.Get("/events", s.ListEvents)
	r.Post("/events", s.SendEvent)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StateResponse{
		MachineID: s.Machine.ID(),
		State:     s.Machine.CurrentPath(),
	})
}

// ListStates handles GET /states.
func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Machine.StatePaths())
}

// ListEvents handles GET /events.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := s.Machine.Events()
	if events == nil {
		events = []string{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

// SendEvent handles POST /events.
func (s *Server) SendEvent(w http.ResponseWriter, r *http.Request) {
	var body EventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Event == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be {\"event\": \"name\"}"})
		s.logger.Warn("SendEvent: Invalid request body", "error", err)
		return
	}

	if body.Queue {
		if err := s.Machine.Enqueue(body.Event); err != nil {
			s.fail(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, StateResponse{MachineID: s.Machine.ID(), State: s.Machine.CurrentPath()})
		return
	}

	changed, err := s.Machine.Send(r.Context(), body.Event)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{
		MachineID: s.Machine.ID(),
		State:     s.Machine.CurrentPath(),
		Changed:   &changed,
	})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownEvent):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMachineStopped), errors.Is(err, domain.ErrNotStarted):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("SendEvent failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}
