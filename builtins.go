package canopy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/timer"
)

// RegisterBuiltins adds general purpose actions bound to m, so that a
// definition can run without host code:
//
//	log(words...)                     logs the words at Info level
//	emit(event)                       enqueues an event
//	start_timer(event, period[, n])   starts a timer; period is a Go duration or milliseconds, n<0 repeats forever
//	stop_timer(event)                 stops the oldest timer for event
//	set(name[, value])                sets a variable (value defaults to "true")
//	unset(name)                       removes a variable
//	is(name[, value])                 condition: variable equals value (default "true")
//	true, false                       constant conditions
//
// Names already registered are overwritten.
func RegisterBuiltins(reg *registry.Registry, m *Machine) {
	reg.RegisterCommand("log", func(ctx context.Context, args []string) error {
		m.logger.InfoContext(ctx, strings.Join(args, " "), "state", m.current.Path())
		return nil
	})

	reg.RegisterCommand("emit", func(ctx context.Context, args []string) error {
		if err := arity("emit", args, 1, 1); err != nil {
			return err
		}
		return m.Enqueue(args[0])
	})

	reg.RegisterCommand("start_timer", func(ctx context.Context, args []string) error {
		if err := arity("start_timer", args, 2, 3); err != nil {
			return err
		}
		period, err := parsePeriod(args[1])
		if err != nil {
			return err
		}
		reps := 1
		if len(args) == 3 {
			if reps, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid repetitions %q: %w", args[2], err)
			}
			if reps < 0 {
				reps = timer.Forever
			}
		}
		_, err = m.AddTimer(args[0], period, reps)
		return err
	})

	reg.RegisterCommand("stop_timer", func(ctx context.Context, args []string) error {
		if err := arity("stop_timer", args, 1, 1); err != nil {
			return err
		}
		m.RemoveTimerByEvent(args[0])
		return nil
	})

	reg.RegisterCommand("set", func(ctx context.Context, args []string) error {
		if err := arity("set", args, 1, 2); err != nil {
			return err
		}
		m.SetVar(args[0], valueArg(args))
		return nil
	})

	reg.RegisterCommand("unset", func(ctx context.Context, args []string) error {
		if err := arity("unset", args, 1, 1); err != nil {
			return err
		}
		m.UnsetVar(args[0])
		return nil
	})

	reg.Register("is", func(ctx context.Context, args []string) (bool, error) {
		if err := arity("is", args, 1, 2); err != nil {
			return false, err
		}
		v, ok := m.Var(args[0])
		return ok && v == valueArg(args), nil
	})

	reg.Register("true", func(ctx context.Context, args []string) (bool, error) { return true, nil })
	reg.Register("false", func(ctx context.Context, args []string) (bool, error) { return false, nil })
}

func arity(name string, args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("%s expects %d argument(s), got %d", name, lo, len(args))
		}
		return fmt.Errorf("%s expects %d to %d arguments, got %d", name, lo, hi, len(args))
	}
	return nil
}

func valueArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "true"
}

// parsePeriod accepts a Go duration ("1.5s") or a bare number of milliseconds.
func parsePeriod(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return d, nil
}
