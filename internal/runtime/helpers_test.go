package runtime_test

import (
	"context"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
)

// recorder registers actions that append "name(args)" to a shared log.
type recorder struct {
	reg   *registry.Registry
	calls []string
	flags map[string]bool
}

func newRecorder(names ...string) *recorder {
	r := &recorder{reg: registry.New(), flags: make(map[string]bool)}
	for _, name := range names {
		r.action(name)
	}
	// is(flag) is true while flag is set with set(flag).
	r.reg.Register("is", func(ctx context.Context, args []string) (bool, error) {
		return r.flags[args[0]], nil
	})
	r.reg.RegisterCommand("set", func(ctx context.Context, args []string) error {
		r.flags[args[0]] = true
		return nil
	})
	return r
}

func (r *recorder) action(name string) {
	r.reg.Register(name, func(ctx context.Context, args []string) (bool, error) {
		r.calls = append(r.calls, name+"("+strings.Join(args, ",")+")")
		return true, nil
	})
}

func (r *recorder) reset() {
	r.calls = nil
}

func act(name string, args ...string) domain.ActionDescriptor {
	return domain.ActionDescriptor{Name: name, Args: args}
}

func acts(names ...string) []domain.ActionDescriptor {
	list := make([]domain.ActionDescriptor, len(names))
	for i, n := range names {
		list[i] = act(n)
	}
	return list
}

func on(event, dest string, actions ...domain.ActionDescriptor) domain.TransitionDefinition {
	return domain.TransitionDefinition{Event: event, Destination: dest, Actions: actions}
}

// crossing is the pedestrian crossing used throughout the tests:
//
//	root
//	├── start        --auto--> Crossing
//	├── Crossing
//	│   ├── start     --auto--> Countdown
//	│   ├── Countdown --one_second--> Countdown, --countdown_complete--> Flowing
//	│   └── Flowing   --button--> Countdown
//	└── Stopped
func crossing() domain.StateDefinition {
	return domain.StateDefinition{
		Name:   "root",
		Events: []string{"one_second", "countdown_complete", "button", "halt", "resume"},
		States: []domain.StateDefinition{
			{Name: "start", Transitions: []domain.TransitionDefinition{on("auto", "Crossing")}},
			{
				Name:  "Crossing",
				Entry: acts("enter_crossing"),
				Exit:  acts("exit_crossing"),
				States: []domain.StateDefinition{
					{Name: "start", Transitions: []domain.TransitionDefinition{on("auto", "Countdown")}},
					{
						Name:  "Countdown",
						Entry: acts("enter_countdown"),
						Exit:  acts("exit_countdown"),
						Transitions: []domain.TransitionDefinition{
							on("one_second", "Countdown", act("update_ped_time")),
							on("countdown_complete", "Flowing"),
						},
					},
					{
						Name:        "Flowing",
						Entry:       acts("enter_flowing"),
						Transitions: []domain.TransitionDefinition{on("button", "Countdown")},
					},
				},
				Transitions: []domain.TransitionDefinition{on("halt", "Stopped")},
			},
			{
				Name:        "Stopped",
				Entry:       acts("enter_stopped"),
				Transitions: []domain.TransitionDefinition{on("resume", "Crossing")},
			},
		},
	}
}

func crossingRecorder() *recorder {
	return newRecorder(
		"enter_crossing", "exit_crossing",
		"enter_countdown", "exit_countdown",
		"enter_flowing", "enter_stopped",
		"update_ped_time",
	)
}
