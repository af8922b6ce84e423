package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/ports"
)

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// QuitCommands end the conversation from the prompt.
var QuitCommands = map[string]bool{"exit": true, "quit": true}

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// Prompt is printed before every read.
	Prompt string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO. Nil arguments
// default to Stdin and Stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts reading lines in the background so Input can honor
// context cancellation while the user is typing.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, resp *ports.Response) error {
	if r := resp.Rendering; r != nil {
		if r.Content != "" {
			output := r.Content
			if h.Renderer != nil {
				if rendered, err := h.Renderer(r.Content); err == nil {
					output = rendered
				}
			}
			fmt.Fprintln(h.Writer, strings.TrimSpace(output))
		} else {
			fmt.Fprintf(h.Writer, "[%s] %s\n", r.StateID, r.View)
		}
	}
	for _, m := range resp.Messages {
		fmt.Fprintln(h.Writer, m.String())
	}
	if resp.Ended && resp.Outcome != nil {
		fmt.Fprintf(h.Writer, "Flow ended: %s\n", resp.Outcome.ID)
		if out := resp.Outcome.Output; out.Len() > 0 {
			keys := out.Keys()
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(h.Writer, "  %s = %v\n", k, out.Get(k))
			}
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (Command, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Prompt)
		}

		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return Command{}, io.EOF
			}
			if res.err != nil {
				return Command{}, res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if QuitCommands[clean] {
				return Command{}, io.EOF
			}
			return ParseCommand(clean), nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

// ParseCommand splits a reply into the event id and key=value parameters.
// A repeated key collects its values into a []string; a word without "="
// becomes a parameter with an empty value.
func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}
	cmd := Command{EventID: fields[0], Params: attr.New()}
	for _, f := range fields[1:] {
		k, v, _ := strings.Cut(f, "=")
		switch prev := cmd.Params.Get(k).(type) {
		case nil:
			cmd.Params.Put(k, v)
		case string:
			cmd.Params.Put(k, []string{prev, v})
		case []string:
			cmd.Params.Put(k, append(prev, v))
		}
	}
	return cmd
}
