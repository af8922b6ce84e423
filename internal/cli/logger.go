package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
)

// NewLogger builds the command logger from the --log-level and
// --log-format flags.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch f := logging.Format(format); f {
	case logging.FormatText, logging.FormatJSON:
		return logging.NewWithWriter(w, lvl, f), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
