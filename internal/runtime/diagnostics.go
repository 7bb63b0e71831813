package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Diagnostic flag names.
const (
	FlagMachineParse        = "machine_parse"
	FlagEntryExit           = "entry_exit"
	FlagActionsTaken        = "actions_taken"
	FlagExecutionDetails    = "execution_details"
	FlagTransitions         = "transitions"
	FlagUseLevelIndenting   = "use_level_indenting"
	FlagShowShortStateNames = "show_short_state_names"
)

// DiagnosticsConfig holds the debug flags that gate verbose tracing.
// Tracing is emitted as Debug records on the tree's logger, so the logger
// level must allow Debug for anything to show up.
type DiagnosticsConfig struct {
	MachineParse        bool
	EntryExit           bool
	ActionsTaken        bool
	ExecutionDetails    bool
	Transitions         bool
	UseLevelIndenting   bool
	ShowShortStateNames bool
}

func (c *DiagnosticsConfig) field(flag string) (*bool, bool) {
	switch flag {
	case FlagMachineParse:
		return &c.MachineParse, true
	case FlagEntryExit:
		return &c.EntryExit, true
	case FlagActionsTaken:
		return &c.ActionsTaken, true
	case FlagExecutionDetails:
		return &c.ExecutionDetails, true
	case FlagTransitions:
		return &c.Transitions, true
	case FlagUseLevelIndenting:
		return &c.UseLevelIndenting, true
	case FlagShowShortStateNames:
		return &c.ShowShortStateNames, true
	}
	return nil, false
}

// Set turns a named flag on or off.
func (c *DiagnosticsConfig) Set(flag string, on bool) error {
	f, ok := c.field(flag)
	if !ok {
		return fmt.Errorf("unknown diagnostics flag %q", flag)
	}
	*f = on
	return nil
}

// Enabled reports whether the named flag is on. Unknown flags are off.
func (c DiagnosticsConfig) Enabled(flag string) bool {
	f, ok := c.field(flag)
	return ok && *f
}

// Flags returns the names of the enabled flags, sorted.
func (c DiagnosticsConfig) Flags() []string {
	var on []string
	for _, name := range AllFlags() {
		if c.Enabled(name) {
			on = append(on, name)
		}
	}
	sort.Strings(on)
	return on
}

// AllFlags lists every known flag name.
func AllFlags() []string {
	return []string{
		FlagMachineParse,
		FlagEntryExit,
		FlagActionsTaken,
		FlagExecutionDetails,
		FlagTransitions,
		FlagUseLevelIndenting,
		FlagShowShortStateNames,
	}
}

// ParseDiagnostics builds a config from a comma separated list of flag names.
// The special value "all" enables every flag.
func ParseDiagnostics(list string) (DiagnosticsConfig, error) {
	var cfg DiagnosticsConfig
	for _, raw := range strings.Split(list, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if name == "all" {
			for _, f := range AllFlags() {
				_ = cfg.Set(f, true)
			}
			continue
		}
		if err := cfg.Set(name, true); err != nil {
			return DiagnosticsConfig{}, err
		}
	}
	return cfg, nil
}

// trace writes a Debug record if flag is enabled.
func (t *Tree) trace(ctx context.Context, flag string, depth int, msg string, args ...any) {
	if !t.diag.Enabled(flag) {
		return
	}
	if t.diag.UseLevelIndenting && depth > 0 {
		msg = strings.Repeat("  ", depth) + msg
	}
	t.logger.Log(ctx, slog.LevelDebug, msg, append(args, "flag", flag)...)
}

// display returns the state name as configured for diagnostics output.
func (t *Tree) display(id int) string {
	if t.diag.ShowShortStateNames {
		return t.nodes[id].name
	}
	return t.nodes[id].path
}
