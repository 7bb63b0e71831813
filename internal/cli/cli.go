// Package cli holds the plumbing shared by the canopy commands: flag and
// config merging, and building a machine with its logger, metrics and event
// sources.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/canopy/internal/config"
	"github.com/spf13/cobra"
)

// AddMachineFlags registers the flags shared by every command that runs a
// machine.
func AddMachineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "Config file (default ./"+config.DefaultFile+" when present)")
	f.String("diagnostics", "", "Comma separated trace flags, e.g. entry_exit,transitions")
	f.String("log-level", "", "Log level: debug, info, warn or error")
	f.String("log-format", "", "Log format: text or json")
	f.Duration("period", 0, "Processing period")
	f.Bool("cascade", false, "Exit and enter every state between source and destination")
	f.String("redis", "", "Redis address to read events from")
	f.String("redis-key", "", "Redis list holding pending events")
}

// LoadConfig reads the config file and applies the flags that were set on
// the command line. The first argument, when present, names the definition.
func LoadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if len(args) > 0 {
		cfg.Definition = args[0]
	}

	f := cmd.Flags()
	if changed(cmd, "diagnostics") {
		cfg.Diagnostics, _ = f.GetString("diagnostics")
	}
	if changed(cmd, "log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if changed(cmd, "log-format") {
		cfg.LogFormat, _ = f.GetString("log-format")
	}
	if changed(cmd, "period") {
		cfg.Period, _ = f.GetDuration("period")
		if cfg.Period <= 0 {
			return cfg, fmt.Errorf("--period must be positive")
		}
	}
	if changed(cmd, "cascade") {
		cfg.AncestorCascade, _ = f.GetBool("cascade")
	}
	if changed(cmd, "redis") {
		cfg.Redis.Addr, _ = f.GetString("redis")
	}
	if changed(cmd, "redis-key") {
		cfg.Redis.Key, _ = f.GetString("redis-key")
	}
	if changed(cmd, "http") {
		cfg.HTTPAddr, _ = f.GetString("http")
	}

	if cfg.Definition == "" {
		return cfg, errors.New("no definition file given")
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	return fl != nil && fl.Changed
}

// IgnoreCancel maps the errors of an interrupted command to nil.
func IgnoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// PrintSystemMessage writes a status line to stderr.
func PrintSystemMessage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, ">>> %s\n", fmt.Sprintf(format, args...))
}

// LogErrors logs each error as its own record.
func LogErrors(logger *slog.Logger, msg string, errs []error) {
	for _, err := range errs {
		logger.Error(msg, "error", err)
	}
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
