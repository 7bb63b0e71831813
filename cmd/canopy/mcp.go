package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [definition.yaml]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the machine as an MCP server so that AI agents can send events
and inspect its state through the send_event, current_state and list_states
tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Logs go to Stderr.
- sse: Uses Server-Sent Events over HTTP.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd, args)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

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

		return serveMCP(ctx, stop, s, transport, addr, os.Stdin, os.Stdout)
	},
}

// serveMCP runs the machine and the MCP transport. A failing background
// source stops the transport and its error is returned.
func serveMCP(ctx context.Context, stop context.CancelFunc, s *cli.Session, transport, addr string, in io.Reader, out io.Writer) error {
	if transport != "stdio" && transport != "sse" {
		return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
	}

	go func() {
		if err := s.Machine.Run(ctx); cli.IgnoreCancel(err) != nil {
			s.Logger.Error("Machine stopped", "error", err)
		}
	}()
	errs := s.Background(ctx)

	srv := mcp.NewServer(s.Machine, canopy.Version, s.Logger)
	served := make(chan error, 1)
	go func() {
		if transport == "stdio" {
			s.Logger.Info("Starting canopy MCP server (stdio)")
			served <- srv.ServeStdio(ctx, in, out)
			return
		}
		s.Logger.Info("Starting canopy MCP server (SSE)", "addr", addr)
		if err := srv.ServeSSE(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			served <- err
			return
		}
		served <- nil
	}()

	var err error
	select {
	case err = <-served:
	case err = <-errs:
		s.Logger.Error("Background source failed", "error", err)
		stop()
		<-served
	}
	return cli.IgnoreCancel(err)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	cli.AddMachineFlags(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "localhost:8080", "Address to listen on (only for SSE)")
}
