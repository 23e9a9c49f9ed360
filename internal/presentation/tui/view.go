// Package tui renders launcher views on a terminal.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/arvis/pkg/session"
)

// ViewPrinter writes views to a terminal, styled for its color profile.
type ViewPrinter struct {
	w   io.Writer
	out *termenv.Output
}

// NewViewPrinter creates a printer for w. Pass termenv.WithProfile(termenv.Ascii)
// to disable styling.
func NewViewPrinter(w io.Writer, opts ...termenv.OutputOption) *ViewPrinter {
	return &ViewPrinter{w: w, out: termenv.NewOutput(w, opts...)}
}

// Print writes the input line followed by the numbered rows.
func (p *ViewPrinter) Print(v session.View) {
	var b strings.Builder

	prompt := p.out.String("›").Foreground(p.out.Color("#38bdf8")).Bold()
	fmt.Fprintf(&b, "%s %s", prompt, v.Input)
	if v.Busy {
		fmt.Fprintf(&b, "  %s", p.out.String("…").Faint())
	}
	if v.Extension != "" {
		fmt.Fprintf(&b, "  %s", p.out.String("["+v.Extension+"]").Faint())
	}
	b.WriteString("\n")

	for i, row := range v.Rows {
		marker := " "
		if i == v.Selected {
			marker = p.out.String("▸").Foreground(p.out.Color("#34d399")).String()
		}
		title := p.out.String(row.Title)
		switch {
		case !row.Valid:
			title = title.Faint().CrossOut()
		case i == v.Selected:
			title = title.Bold()
		}
		fmt.Fprintf(&b, "%s %2d  %s", marker, i, title)
		if row.Subtitle != "" {
			fmt.Fprintf(&b, "  %s", p.out.String(row.Subtitle).Faint())
		}
		b.WriteString("\n")
	}

	io.WriteString(p.w, b.String())
}

// Error writes err in the error color.
func (p *ViewPrinter) Error(err error) {
	fmt.Fprintln(p.w, p.out.String("error: "+err.Error()).Foreground(p.out.Color("#f87171")))
}
