// Package perrors implements pqlc's structured diagnostics (spec.md §7
// "Error handling design"): a Reason plus an optional source span and
// hints, rendered Ariadne-style by the CLI.
//
// Grounded on the teacher's span-carrying error types in
// _examples/leapstack-labs-leapsql/pkg/parser/errors.go, generalized from
// one struct per failure site to a single Reason sum type so every stage
// of the pipeline (resolver, lowerer, anchor, emitter) reports through one
// shape.
package perrors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pql-lang/pqlc/pkg/token"
)

// ReasonKind is the sealed set of reason shapes (spec.md §7 "Reason kinds").
type ReasonKind interface{ reasonKind() }

// Simple is a free-form message, usually from preprocessing.
type Simple struct{ Message string }

func (Simple) reasonKind() {}

// Expected reports a mismatched kind or arity.
type Expected struct {
	Who      string // optional, e.g. "function `select`"
	Expected string
	Found    string
}

func (Expected) reasonKind() {}

// Unexpected reports an extraneous construct (e.g. an alias outside a
// tuple).
type Unexpected struct{ Found string }

func (Unexpected) reasonKind() {}

// NotFound reports an unresolved identifier.
type NotFound struct {
	Name      string
	Namespace string // "function", "variable", "table", ...
}

func (NotFound) reasonKind() {}

// Error is one structured diagnostic: a reason, an optional source span,
// and zero or more hints.
type Error struct {
	Reason ReasonKind
	Span   *token.Span
	Hints  []string
}

// New builds an Error with no span or hints.
func New(reason ReasonKind) *Error { return &Error{Reason: reason} }

// WithSpan attaches a source span.
func (e *Error) WithSpan(span token.Span) *Error {
	e.Span = &span
	return e
}

// WithHint appends a hint line.
func (e *Error) WithHint(hint string) *Error {
	e.Hints = append(e.Hints, hint)
	return e
}

// Error implements the error interface with a single-line rendering; the
// CLI uses Render for the full Ariadne-style output.
func (e *Error) Error() string {
	var msg string
	switch r := e.Reason.(type) {
	case Simple:
		msg = r.Message
	case Expected:
		if r.Who != "" {
			msg = fmt.Sprintf("%s: expected %s, found %s", r.Who, r.Expected, r.Found)
		} else {
			msg = fmt.Sprintf("expected %s, found %s", r.Expected, r.Found)
		}
	case Unexpected:
		msg = fmt.Sprintf("unexpected %s", r.Found)
	case NotFound:
		msg = fmt.Sprintf("unknown %s `%s`", r.Namespace, r.Name)
	default:
		msg = "unknown error"
	}
	if e.Span != nil && e.Span.IsValid() {
		msg = fmt.Sprintf("%d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, msg)
	}
	return msg
}

// Errors is an ordered collection of Error, the top-level `compile` failure
// type (spec.md §7 "Propagation policy").
type Errors []*Error

// Error renders every contained Error, one per line.
func (es Errors) Error() string {
	lines := make([]string, len(es))
	for i, e := range es {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// NotFoundWithCandidates builds the "ambiguous name" diagnostic (spec.md §7
// "Recoverable cases"): candidates are listed, sorted, in the hint.
func NotFoundWithCandidates(name, namespace string, candidates []string) *Error {
	e := New(NotFound{Name: name, Namespace: namespace})
	if len(candidates) > 1 {
		e.Reason = Simple{Message: fmt.Sprintf("ambiguous name `%s`", name)}
		sorted := append([]string(nil), candidates...)
		sort.Strings(sorted)
		e.Hints = append(e.Hints, fmt.Sprintf("candidates: %s", strings.Join(sorted, ", ")))
	}
	return e
}
