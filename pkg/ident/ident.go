// Package ident implements the dotted-path identifier used for name
// resolution throughout the resolver and module tree.
//
// Grounded on the path-segment idiom used in
// _examples/original_source/prqlc/prqlc/src/semantic/resolver/names.rs,
// expressed in Go as a value type over a slice of segments rather than a
// Rust newtype around Vec<String>.
package ident

import "strings"

// Ident is an ordered path of name segments, e.g. `foo.bar.baz` is
// Ident{Parts: []string{"foo", "bar", "baz"}}.
type Ident struct {
	Parts []string
}

// New builds an Ident from path segments.
func New(parts ...string) Ident {
	return Ident{Parts: append([]string(nil), parts...)}
}

// FromName builds a single-segment Ident.
func FromName(name string) Ident {
	return Ident{Parts: []string{name}}
}

// Parse splits a dotted string into an Ident. Empty input yields an empty
// Ident.
func Parse(s string) Ident {
	if s == "" {
		return Ident{}
	}
	return Ident{Parts: strings.Split(s, ".")}
}

// String renders the Ident back to dotted form.
func (id Ident) String() string {
	return strings.Join(id.Parts, ".")
}

// Empty reports whether the Ident has no segments.
func (id Ident) Empty() bool {
	return len(id.Parts) == 0
}

// Name returns the terminal (last) segment, or "" if empty.
func (id Ident) Name() string {
	if len(id.Parts) == 0 {
		return ""
	}
	return id.Parts[len(id.Parts)-1]
}

// Path returns all segments but the terminal one.
func (id Ident) Path() []string {
	if len(id.Parts) <= 1 {
		return nil
	}
	return id.Parts[:len(id.Parts)-1]
}

// StartsWith reports whether id begins with the segments of prefix.
func (id Ident) StartsWith(prefix Ident) bool {
	if len(prefix.Parts) > len(id.Parts) {
		return false
	}
	for i, p := range prefix.Parts {
		if id.Parts[i] != p {
			return false
		}
	}
	return true
}

// PopFront removes and returns the first segment, and the remaining Ident.
// Calling PopFront on an empty Ident returns ("", empty Ident).
func (id Ident) PopFront() (string, Ident) {
	if len(id.Parts) == 0 {
		return "", id
	}
	return id.Parts[0], Ident{Parts: append([]string(nil), id.Parts[1:]...)}
}

// Append returns a new Ident with name appended as the final segment.
func (id Ident) Append(name string) Ident {
	parts := append(append([]string(nil), id.Parts...), name)
	return Ident{Parts: parts}
}

// Concat joins two Idents into one path.
func Concat(a, b Ident) Ident {
	parts := append(append([]string(nil), a.Parts...), b.Parts...)
	return Ident{Parts: parts}
}

// Equal reports whether two Idents have identical segment sequences.
// "Two Idents compare equal iff their segment vectors are equal" (spec.md §3).
func (id Ident) Equal(other Ident) bool {
	if len(id.Parts) != len(other.Parts) {
		return false
	}
	for i := range id.Parts {
		if id.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}
