package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateResponse is the structured result of the machine tools.
type StateResponse struct {
	MachineID string `json:"machine_id" jsonschema_description:"Machine instance ID"`
	State     string `json:"state" jsonschema_description:"Absolute path of the active leaf state"`
	Changed   bool   `json:"changed" jsonschema_description:"Whether the event caused a transition"`
	Queued    bool   `json:"queued,omitempty" jsonschema_description:"The event was queued without processing"`
}

// Server exposes a machine as an MCP server.
type Server struct {
	machine   ports.Machine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(machine ports.Machine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		machine:   machine,
		mcpServer: server.NewMCPServer("canopy-mcp", version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves JSON-RPC over in and out until the context is done or
// in reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// ServeSSE serves over SSE on addr until the context is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: send_event
	sendTool := mcp.NewTool("send_event",
		mcp.WithDescription("Send an event to the state machine and process it."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name; must be declared by the machine")),
		mcp.WithBoolean("queue", mcp.Description("Only queue the event; the machine loop processes it later")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendEvent))

	// TOOL: current_state
	s.mcpServer.AddTool(mcp.NewTool("current_state",
		mcp.WithDescription("Get the active leaf state of the machine."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleCurrentState))

	// TOOL: list_states
	s.mcpServer.AddTool(mcp.NewTool("list_states",
		mcp.WithDescription("List every state path and the declared events."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := s.describe()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleSendEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	event, _ := args["event"].(string)
	queue, _ := args["queue"].(bool)
	if event == "" {
		return StateResponse{}, fmt.Errorf("event is required")
	}

	if queue {
		if err := s.machine.Enqueue(event); err != nil {
			return StateResponse{}, fmt.Errorf("enqueue failed: %w", err)
		}
		return StateResponse{MachineID: s.machine.ID(), State: s.machine.CurrentPath(), Queued: true}, nil
	}

	changed, err := s.machine.Send(ctx, event)
	if err != nil {
		s.logger.Warn("MCP send_event failed", "event", event, "error", err)
		return StateResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return StateResponse{MachineID: s.machine.ID(), State: s.machine.CurrentPath(), Changed: changed}, nil
}

func (s *Server) handleCurrentState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	return StateResponse{MachineID: s.machine.ID(), State: s.machine.CurrentPath()}, nil
}

func (s *Server) describe() ([]byte, error) {
	return json.Marshal(struct {
		States []string `json:"states"`
		Events []string `json:"events"`
	}{
		States: s.machine.StatePaths(),
		Events: s.machine.Events(),
	})
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://states
	s.mcpServer.AddResource(mcp.NewResource("canopy://states", "State Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := s.describe()
		if err != nil {
			return nil, fmt.Errorf("failed to describe machine: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canopy://states",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
