package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONHandler implements IOHandler for JSON Lines communication.
//
// Each input line is either plain text, a JSON string, or an object of the
// form {"event": "x"} or {"events": ["x", "y"]}. Each report is written as
// one JSON object; errors are written as {"error": "..."}.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

type jsonInput struct {
	Event  string   `json:"event"`
	Events []string `json:"events"`
}

type jsonError struct {
	Error string `json:"error"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var in jsonInput
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &in) == nil {
		events := in.Events
		if in.Event != "" {
			events = append([]string{in.Event}, events...)
		}
		return strings.Join(events, " "), nil
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}

func (h *JSONHandler) Report(ctx context.Context, r Report) error {
	return h.Encoder.Encode(r)
}

func (h *JSONHandler) Error(ctx context.Context, err error) error {
	return h.Encoder.Encode(jsonError{Error: err.Error()})
}
