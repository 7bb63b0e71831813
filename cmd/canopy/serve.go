package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

const defaultHTTPAddr = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve [definition.yaml]",
	Short: "Run a machine behind the HTTP API",
	Long: `Starts the machine and processes events posted to the HTTP API (and
optionally pushed to a Redis list) until interrupted.

  GET  /state     current state
  GET  /states    every state path
  GET  /events    declared events
  POST /events    {"event": "button", "queue": false}
  GET  /metrics   Prometheus metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd, args)
		if err != nil {
			return err
		}
		if cfg.HTTPAddr == "" {
			cfg.HTTPAddr = defaultHTTPAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := cli.NewSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				s.Logger.Error("Cleanup failed", "error", err)
			}
		}()

		return serveMachine(ctx, stop, s)
	},
}

// serveMachine runs the machine and its background sources until the context
// is done, the machine finishes or a source fails.
func serveMachine(ctx context.Context, stop context.CancelFunc, s *cli.Session) error {
	errs := s.Background(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Machine.Run(ctx) }()

	var err error
	select {
	case err = <-done:
		if err == nil {
			s.Logger.Info("Machine finished", "state", s.Machine.CurrentPath())
		}
	case err = <-errs:
	}
	stop()
	return cli.IgnoreCancel(err)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	cli.AddMachineFlags(serveCmd)
	serveCmd.Flags().String("http", "", "Address to listen on (default "+defaultHTTPAddr+")")
}
