package pl

import "github.com/pql-lang/pqlc/pkg/ident"

// Lineage records what would appear if the table-shaped expression carrying
// it were materialized right now: its output columns, the inputs those
// columns may come from, and the columns of the previous pipeline step
// (spec.md §3 "Lineage").
//
// Grounded conceptually on the source-column vocabulary of the teacher's
// column-lineage extractor (_examples/leapstack-labs-leapsql/pkg/lineage/
// lineage.go's SourceColumn/ColumnLineage), generalized from "infer lineage
// by parsing SQL text" to "carry lineage forward natively during PL
// resolution" — the two packages solve the same bookkeeping problem in
// opposite data-flow directions.
type Lineage struct {
	Columns     []LineageColumn
	Inputs      []LineageInput
	PrevColumns []LineageColumn
}

// LineageColumnKind distinguishes a single named output column from a
// wildcard expansion of an input.
type LineageColumnKind int

// Lineage column kinds.
const (
	ColSingle LineageColumnKind = iota
	ColAll
)

// LineageColumn is one entry of a Lineage's Columns/PrevColumns list.
type LineageColumn struct {
	Kind LineageColumnKind

	// ColSingle fields.
	Name       string // optional declared name
	TargetID   int    // id of the Expr this column resolves to
	TargetName string // optional, the target's own name if different

	// ColAll fields.
	InputID int             // id of the LineageInput this wildcard expands
	Except  map[string]bool // names on that input's relation known to be excluded
}

// LineageInput names one relation contributing to a Lineage.
type LineageInput struct {
	ID    int
	Name  string
	Table ident.Ident // fully-qualified table ident, if this input is a real table
}

// Clone deep-copies a Lineage so callers can mutate a copy without aliasing
// the original (the resolver clones lineage when it clones a sub-pipeline,
// e.g. while simulating `group`/`window`, spec.md §4.2.2).
func (l *Lineage) Clone() *Lineage {
	if l == nil {
		return nil
	}
	out := &Lineage{
		Columns:     append([]LineageColumn(nil), l.Columns...),
		Inputs:      append([]LineageInput(nil), l.Inputs...),
		PrevColumns: append([]LineageColumn(nil), l.PrevColumns...),
	}
	return out
}

// FindColumn looks up a named output column, returning its target id.
func (l *Lineage) FindColumn(name string) (int, bool) {
	if l == nil {
		return 0, false
	}
	for _, c := range l.Columns {
		if c.Kind == ColSingle && c.Name == name {
			return c.TargetID, true
		}
	}
	return 0, false
}

// HasWildcard reports whether any output column is a wildcard expansion.
func (l *Lineage) HasWildcard() bool {
	if l == nil {
		return false
	}
	for _, c := range l.Columns {
		if c.Kind == ColAll {
			return true
		}
	}
	return false
}
