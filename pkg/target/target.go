// Package target implements the dialect capability interface the SQL
// emitter (pkg/sqlwriter) consults for every dialect-sensitive rendering
// decision (spec.md §4.8 "SQL emitter").
//
// Grounded on the teacher's Dialect/Builder pattern in
// _examples/leapstack-labs-leapsql/pkg/dialect/dialect.go, repurposed from
// parse-side concerns (clause sequence, lexer symbols, function lineage
// classification) to emit-side ones (identifier quoting, LIMIT syntax,
// set-operation support).
package target

import "strings"

// TopStyle is how a dialect expresses "keep only the top N rows" when no
// ORDER BY-free LIMIT is used.
type TopStyle int

// Top-of-result styles.
const (
	TopStyleLimit      TopStyle = iota // LIMIT n [OFFSET m]
	TopStyleTop                        // SELECT TOP n ...
	TopStyleFetchFirst                 // FETCH FIRST n ROWS ONLY
)

// IdentifierConfig defines how a dialect quotes and normalizes
// identifiers, reused verbatim in shape from the teacher's parser-facing
// IdentifierConfig.
type IdentifierConfig struct {
	Quote    string
	QuoteEnd string
	Escape   string
}

// Dialect is the full capability surface the emitter depends on.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	Top TopStyle

	SupportsDistinctOn  bool
	SetOpsAllowAllQualifier bool
	SupportsExceptAll   bool
	SupportsIntersectAll bool
	SupportsCTEs        bool
	SupportsRecursiveCTEs bool
	StarsInGroupBy      bool // whether `GROUP BY *` / star expansion is legal

	reservedWords map[string]struct{}

	parent *Dialect
}

// QuoteIdentifier quotes name using d's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// NeedsQuoting reports whether name must be quoted: it is a reserved word,
// or contains characters illegal in a bare identifier.
func (d *Dialect) NeedsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if d.IsReservedWord(name) {
		return true
	}
	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return true
	}
	return false
}

// QuoteIdentifierIfNeeded quotes name only when NeedsQuoting reports true.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.NeedsQuoting(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// IsReservedWord reports whether word needs quoting as an identifier,
// consulting the parent dialect if this one defines no reserved set.
func (d *Dialect) IsReservedWord(word string) bool {
	lower := strings.ToLower(word)
	if d.reservedWords != nil {
		if _, ok := d.reservedWords[lower]; ok {
			return true
		}
	}
	if d.parent != nil {
		return d.parent.IsReservedWord(word)
	}
	return false
}

// UseTop reports whether d expresses row-limiting via TOP n rather than
// LIMIT/FETCH FIRST.
func (d *Dialect) UseTop() bool { return d.Top == TopStyleTop }
