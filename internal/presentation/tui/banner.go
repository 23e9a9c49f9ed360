package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arvis banner.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"   __ _ _ ____   _(_)___", "#38bdf8"},
		{"  / _` | '__\\ \\ / / / __|", "#22d3ee"},
		{" | (_| | |   \\ V /| \\__ \\", "#2dd4bf"},
		{"  \\__,_|_|    \\_/ |_|___/", "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
