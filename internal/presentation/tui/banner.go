package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _         _                `, "#34d399"},
	{`    / \   _ __| |__   ___  _ __ `, "#10b981"},
	{`   / _ \ | '__| '_ \ / _ \| '__|`, "#14b8a6"},
	{`  / ___ \| |  | |_) | (_) | |   `, "#06b6d4"},
	{` /_/   \_\_|  |_.__/ \___/|_|   `, "#0ea5e9"},
}

// PrintBanner writes the arbor banner and version to w, colored for the
// color profile of w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
