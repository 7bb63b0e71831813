package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMachine struct {
	state  string
	queued []string
}

func (m *stubMachine) ID() string { return "m-1" }
func (m *stubMachine) Enqueue(event string) error {
	if event == "bogus" {
		return domain.ErrUnknownEvent
	}
	m.queued = append(m.queued, event)
	return nil
}
func (m *stubMachine) Send(ctx context.Context, event string) (bool, error) {
	if err := m.Enqueue(event); err != nil {
		return false, err
	}
	m.state = "root." + event
	return true, nil
}
func (m *stubMachine) CurrentPath() string  { return m.state }
func (m *stubMachine) Events() []string     { return []string{"A", "B"} }
func (m *stubMachine) StatePaths() []string { return []string{"root", "root.A", "root.B"} }

func TestSendEvent(t *testing.T) {
	m := &stubMachine{state: "root.A"}
	s := NewServer(m, "test", nil)
	ctx := context.Background()

	resp, err := s.handleSendEvent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "B"})
	require.NoError(t, err)
	assert.Equal(t, StateResponse{MachineID: "m-1", State: "root.B", Changed: true}, resp)

	resp, err = s.handleSendEvent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "A", "queue": true})
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.Equal(t, "root.B", resp.State)
	assert.Equal(t, []string{"B", "A"}, m.queued)
}

func TestSendEvent_Errors(t *testing.T) {
	s := NewServer(&stubMachine{}, "test", nil)
	ctx := context.Background()

	_, err := s.handleSendEvent(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleSendEvent(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "bogus"})
	assert.True(t, errors.Is(err, domain.ErrUnknownEvent))
}

func TestCurrentStateAndDescribe(t *testing.T) {
	s := NewServer(&stubMachine{state: "root.A"}, "test", nil)

	resp, err := s.handleCurrentState(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "root.A", resp.State)

	data, err := s.describe()
	require.NoError(t, err)
	var out map[string][]string
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, []string{"root", "root.A", "root.B"}, out["states"])
	assert.Equal(t, []string{"A", "B"}, out["events"])
	assert.NotNil(t, s.MCPServer())
}

func TestServeStdio(t *testing.T) {
	s := NewServer(&stubMachine{state: "root.A"}, "test", nil)

	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n")
	var out bytes.Buffer
	require.NoError(t, s.ServeStdio(context.Background(), in, &out))
	assert.Contains(t, out.String(), `"id":7`)
}

func TestServeStdio_ContextCancelled(t *testing.T) {
	s := NewServer(&stubMachine{}, "test", nil)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeStdio(ctx, pr, io.Discard) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeStdio did not return after cancel")
	}
}
