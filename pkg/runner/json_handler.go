package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/ports"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO. Nil arguments default to
// Stdin and Stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// Output writes resp as a single JSON line.
func (h *JSONHandler) Output(ctx context.Context, resp *ports.Response) error {
	return h.Encoder.Encode(resp)
}

// Input reads one line: a command object, a JSON string or a bare event id.
func (h *JSONHandler) Input(ctx context.Context) (Command, error) {
	for {
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return Command{}, err
			}
			continue
		}

		if strings.HasPrefix(text, "{") {
			var cmd Command
			if jerr := json.Unmarshal([]byte(text), &cmd); jerr != nil {
				return Command{}, fmt.Errorf("invalid command: %w", jerr)
			}
			return cmd, nil
		}

		var event string
		if jerr := json.Unmarshal([]byte(text), &event); jerr == nil {
			return Command{EventID: event}, nil
		}
		return Command{EventID: text}, nil
	}
}

// SystemOutput writes {"system": msg}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
