package commands

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/pql-lang/pqlc/pkg/perrors"
)

// colorProfile resolves the --color flag ("always"|"auto"|"never") to a
// termenv.Profile, detecting a TTY for "auto" with golang.org/x/term
// (SPEC_FULL.md §7: "golang.org/x/term used to detect a TTY for the auto
// case").
func colorProfile(mode string) termenv.Profile {
	switch mode {
	case "always":
		return termenv.ColorProfile()
	case "never":
		return termenv.Ascii
	default:
		if term.IsTerminal(int(os.Stderr.Fd())) {
			return termenv.ColorProfile()
		}
		return termenv.Ascii
	}
}

// renderCompileError formats a pipeline failure with perrors.RenderAll when
// it carries the structured perrors.Errors type, falling back to its plain
// Error() text for anything else (e.g. a file-read error).
func renderCompileError(err error, source, colorMode string) string {
	if perrs, ok := err.(perrors.Errors); ok {
		return perrors.RenderAll(perrs, source, colorProfile(colorMode))
	}
	return err.Error()
}
