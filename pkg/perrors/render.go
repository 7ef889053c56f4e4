package perrors

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Render formats an Error against source, in the spirit of Ariadne's
// colored-underline diagnostics: the offending line, a caret span under it,
// the message, and one hint per line.
//
// profile controls ANSI downgrade (termenv.Ascii disables color entirely
// for non-tty output); pass termenv.ColorProfile() for the terminal's
// native profile.
func Render(e *Error, source string, profile termenv.Profile) string {
	r := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(profile))
	errorStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	underline := r.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle := r.NewStyle().Foreground(lipgloss.Color("12"))
	gutterStyle := r.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder

	msg := e.Error()
	b.WriteString(errorStyle.Render("error") + ": " + msg + "\n")

	if e.Span != nil && e.Span.IsValid() && source != "" {
		lines := strings.Split(source, "\n")
		lineIdx := e.Span.Start.Line - 1
		if lineIdx >= 0 && lineIdx < len(lines) {
			line := lines[lineIdx]
			gutter := fmt.Sprintf("%4d | ", e.Span.Start.Line)
			b.WriteString(gutterStyle.Render(gutter) + line + "\n")

			col := e.Span.Start.Column
			width := e.Span.End.Column - e.Span.Start.Column
			if e.Span.End.Line != e.Span.Start.Line || width <= 0 {
				width = 1
			}
			if col < 1 {
				col = 1
			}
			pad := strings.Repeat(" ", len(gutter)+col-1)
			b.WriteString(pad + underline.Render(strings.Repeat("^", width)) + "\n")
		}
	}

	for _, h := range e.Hints {
		b.WriteString(hintStyle.Render("hint") + ": " + h + "\n")
	}

	return b.String()
}

// RenderAll renders each error in es against source, separated by a blank
// line, matching the CLI's §7 "User-visible failure" batch output.
func RenderAll(es Errors, source string, profile termenv.Profile) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = Render(e, source, profile)
	}
	return strings.Join(parts, "\n")
}
