package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// TextHandler implements the interactive text interface: one line of events
// in, one coloured status line out.
type TextHandler struct {
	scanner *bufio.Scanner
	out     *termenv.Output
	opts    []termenv.OutputOption
	prompt  bool
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithColorProfile forces a colour profile, e.g. termenv.Ascii for plain output.
func WithColorProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.opts = append(h.opts, termenv.WithProfile(p))
	}
}

// WithPrompt forces the "> " prompt on or off.
func WithPrompt(on bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.prompt = on
	}
}

// NewTextHandler creates a handler for standard text IO. The prompt is shown
// only when r is a terminal.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		scanner: bufio.NewScanner(r),
		prompt:  isTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.out = termenv.NewOutput(w, h.opts...)
	return h
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h.prompt {
		fmt.Fprint(h.out, "> ")
	}
	if !h.scanner.Scan() {
		if err := h.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(h.scanner.Text()), nil
}

func (h *TextHandler) Report(ctx context.Context, r Report) error {
	var b strings.Builder
	if len(r.Events) > 0 {
		b.WriteString(h.color(strings.Join(r.Events, " "), "#7D56F4"))
		b.WriteString(" ")
	}
	if r.Changed {
		b.WriteString("-> ")
		b.WriteString(h.color(r.State, "#04B575"))
	} else {
		b.WriteString("== ")
		b.WriteString(r.State)
	}
	if r.Done {
		b.WriteString(h.color(" (done)", "#FFA500"))
	}
	_, err := fmt.Fprintln(h.out, b.String())
	return err
}

func (h *TextHandler) Error(ctx context.Context, err error) error {
	_, werr := fmt.Fprintln(h.out, h.color("error: "+err.Error(), "#FF5F87"))
	return werr
}

func (h *TextHandler) color(s, hex string) string {
	return h.out.String(s).Foreground(h.out.Color(hex)).String()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
