package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [definition.yaml]",
	Short: "Drive a machine interactively",
	Long: `Starts the machine and reads event names from standard input, one or more
per line. After each line the new state is printed. Timer events keep being
processed between lines. The session ends on EOF, "quit", a terminal state
or Ctrl+C; the machine then exits every active state and enters end_state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd, args)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

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

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				tui.PrintBanner(os.Stdout)
			}
			handler = runner.NewTextHandler(os.Stdin, os.Stdout)
		}

		errs := s.Background(ctx)
		r := runner.NewRunner(
			runner.WithHandler(handler),
			runner.WithLogger(s.Logger),
			runner.WithPeriod(cfg.Period),
		)

		done := make(chan error, 1)
		go func() { done <- r.Run(ctx, s.Machine) }()

		select {
		case err = <-done:
		case err = <-errs:
			stop()
		}
		if err = cli.IgnoreCancel(err); err != nil {
			return err
		}
		if !jsonMode {
			cli.PrintSystemMessage("Finished at '%s'.", s.Machine.CurrentPath())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	cli.AddMachineFlags(runCmd)
	runCmd.Flags().Bool("json", false, "Read and write JSON lines")
	runCmd.Flags().String("http", "", "Also serve the HTTP API on this address")
}
