package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toggle: Off <-go-> On, On --stop--> final, On --tick--> Off.
func toggle(t *testing.T, timed bool) *canopy.Machine {
	t.Helper()
	root := dsl.New("").Events("go", "stop", "tick")
	root.Start("Off")
	root.State("Off").On("go").Go("On")
	on := root.State("On")
	on.On("go").Go("Off").On("stop").Go("final").On("tick").Go("Off")
	if timed {
		on.Entry("start_timer", "tick", "20ms")
	}
	root.State("final")

	m, err := canopy.New(root.Definition(), nil, canopy.WithBuiltins(), canopy.WithPeriod(time.Millisecond))
	require.NoError(t, err)
	return m
}

func plain(r io.Reader, w io.Writer) *runner.TextHandler {
	return runner.NewTextHandler(r, w, runner.WithColorProfile(termenv.Ascii), runner.WithPrompt(false))
}

func TestRunner_Text(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("go\nbogus\n\nstop\ngo\n")
	r := runner.NewRunner(runner.WithHandler(plain(in, &out)), runner.WithPeriod(time.Hour))

	require.NoError(t, r.Run(context.Background(), toggle(t, false)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"== root.Off",
		"go -> root.On",
		"error: unknown event: bogus",
		"stop -> root.final (done)",
	}, lines)
}

func TestRunner_JSON(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("{\"event\": \"go\"}\n\"go\"\n{\"events\": [\"go\", \"stop\"]}\n")
	r := runner.NewRunner(runner.WithHandler(runner.NewJSONHandler(in, &out)), runner.WithPeriod(time.Hour))

	require.NoError(t, r.Run(context.Background(), toggle(t, false)))

	var reports []runner.Report
	dec := json.NewDecoder(&out)
	for dec.More() {
		var rep runner.Report
		require.NoError(t, dec.Decode(&rep))
		reports = append(reports, rep)
	}
	assert.Equal(t, []runner.Report{
		{State: "root.Off"},
		{Events: []string{"go"}, State: "root.On", Changed: true},
		{Events: []string{"go"}, State: "root.Off", Changed: true},
		{Events: []string{"go", "stop"}, State: "root.final", Changed: true, Done: true},
	}, reports)
}

func TestRunner_JSONError(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("nope\n")
	r := runner.NewRunner(runner.WithHandler(runner.NewJSONHandler(in, &out)), runner.WithPeriod(time.Hour))

	require.NoError(t, r.Run(context.Background(), toggle(t, false)))
	assert.Contains(t, out.String(), `{"error":"unknown event: nope"}`)
}

func TestRunner_QuitAndEOF(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("go\nquit\ngo\n")
	m := toggle(t, false)
	r := runner.NewRunner(runner.WithHandler(plain(in, &out)), runner.WithPeriod(time.Hour))

	require.NoError(t, r.Run(context.Background(), m))
	assert.Equal(t, "root.On", m.CurrentPath())

	// Last line without newline is still processed.
	out.Reset()
	m = toggle(t, false)
	r = runner.NewRunner(runner.WithHandler(plain(strings.NewReader("go"), &out)), runner.WithPeriod(time.Hour))
	require.NoError(t, r.Run(context.Background(), m))
	assert.Equal(t, "root.On", m.CurrentPath())
}

func TestRunner_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r := runner.NewRunner(runner.WithHandler(plain(pr, io.Discard)))
	err := r.Run(ctx, toggle(t, false))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_ProcessesTimersBetweenLines(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := toggle(t, true)
	r := runner.NewRunner(runner.WithHandler(plain(pr, out)), runner.WithPeriod(5*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, m) }()

	_, err := pw.Write([]byte("go\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "-> root.Off")
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), "go -> root.On")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
