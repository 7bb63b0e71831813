package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// DefaultMaxSettle bounds the processing rounds run after one input line.
const DefaultMaxSettle = 64

// Machine is the part of canopy.Machine driven by the runner.
type Machine interface {
	Start(ctx context.Context) error
	Enqueue(event string) error
	ProcessEvents(ctx context.Context) (bool, error)
	CurrentPath() string
	Done() bool
}

// IOHandler abstracts the interaction mode (text or JSON lines).
type IOHandler interface {
	// Input blocks until a line is available. It returns io.EOF at the end of
	// the stream.
	Input(ctx context.Context) (string, error)
	// Report shows the machine state after a round of processing.
	Report(ctx context.Context, r Report) error
	// Error shows a recoverable error, such as an unknown event.
	Error(ctx context.Context, err error) error
}

// Report describes the machine after a batch of events was processed.
type Report struct {
	Events  []string `json:"events,omitempty"`
	State   string   `json:"state"`
	Changed bool     `json:"changed"`
	Done    bool     `json:"done,omitempty"`
}

// Runner feeds events read from an IOHandler into a machine and processes
// timer events between lines.
type Runner struct {
	handler   IOHandler
	logger    *slog.Logger
	period    time.Duration
	maxSettle int
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. The default is a TextHandler on stdio.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithPeriod sets how often queued events are processed while waiting for input.
func WithPeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.period = d
		}
	}
}

// WithMaxSettle bounds the processing rounds run after each input line.
func WithMaxSettle(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxSettle = n
		}
	}
}

// NewRunner creates a Runner reading from stdin and writing to stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		period:    10 * time.Millisecond,
		maxSettle: DefaultMaxSettle,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

type line struct {
	text string
	err  error
}

// Run starts the machine and processes input until EOF, a "quit" line, the
// machine finishing, or ctx being cancelled. EOF and quit return nil.
func (r *Runner) Run(ctx context.Context, m Machine) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	if err := r.handler.Report(ctx, Report{State: m.CurrentPath(), Done: m.Done()}); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	if m.Done() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan line)
	go r.pump(ctx, lines)

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			changed, err := r.settle(ctx, m)
			if err != nil {
				return err
			}
			if changed {
				if err := r.report(ctx, m, nil, true); err != nil {
					return err
				}
			}

		case in := <-lines:
			if in.err != nil {
				if !errors.Is(in.err, io.EOF) {
					return fmt.Errorf("input error: %w", in.err)
				}
				changed, err := r.settle(ctx, m)
				if err != nil {
					return err
				}
				if changed {
					return r.report(ctx, m, nil, true)
				}
				return nil
			}
			if in.text == "quit" || in.text == "exit" {
				return nil
			}
			if err := r.handleLine(ctx, m, in.text); err != nil {
				return err
			}
		}

		if m.Done() {
			r.logger.Debug("Machine finished", "state", m.CurrentPath())
			return nil
		}
	}
}

func (r *Runner) handleLine(ctx context.Context, m Machine, text string) error {
	events, err := ParseEvents(text)
	if err != nil {
		return r.handler.Error(ctx, err)
	}
	if len(events) == 0 {
		return nil
	}

	accepted := events[:0:0]
	for _, ev := range events {
		if err := m.Enqueue(ev); err != nil {
			if errors.Is(err, domain.ErrMachineStopped) {
				return nil
			}
			if err := r.handler.Error(ctx, err); err != nil {
				return err
			}
			continue
		}
		accepted = append(accepted, ev)
	}
	if len(accepted) == 0 {
		return nil
	}

	changed, err := r.settle(ctx, m)
	if err != nil {
		return err
	}
	return r.report(ctx, m, accepted, changed)
}

// settle runs processing rounds while they keep moving the machine.
func (r *Runner) settle(ctx context.Context, m Machine) (bool, error) {
	moved := false
	for i := 0; i < r.maxSettle; i++ {
		changed, err := m.ProcessEvents(ctx)
		if errors.Is(err, domain.ErrMachineStopped) {
			return true, nil
		}
		if err != nil {
			return moved, err
		}
		if !changed {
			return moved, nil
		}
		moved = true
		if m.Done() {
			break
		}
	}
	return moved, nil
}

func (r *Runner) report(ctx context.Context, m Machine, events []string, changed bool) error {
	rep := Report{Events: events, State: m.CurrentPath(), Changed: changed, Done: m.Done()}
	r.logger.Debug("Events processed", "events", events, "state", rep.State, "changed", changed)
	if err := r.handler.Report(ctx, rep); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func (r *Runner) pump(ctx context.Context, out chan<- line) {
	for {
		text, err := r.handler.Input(ctx)
		select {
		case out <- line{text: text, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
