package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour,
// picking a light or dark style from the terminal background.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether both r and w are terminals. Rich output and
// the banner are only shown to people, not to pipes.
func Interactive(r io.Reader, w io.Writer) bool {
	in, ok := r.(*os.File)
	if !ok || !IsTerminal(in) {
		return false
	}
	out, ok := w.(*os.File)
	return ok && IsTerminal(out)
}
