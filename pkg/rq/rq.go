// Package rq implements the RQ (lowered) tree (spec.md §3 "RQ (lowered)
// tree"): a flat, CId-indexed intermediate representation produced by the
// lowerer (C6) from a resolved PL tree.
//
// Grounded on the teacher's flat statement/clause model in
// _examples/leapstack-labs-leapsql/pkg/parser/ast.go (the same sealed
// marker-interface idiom used throughout pkg/pl), generalized from
// source-syntax AST nodes to lowered, id-addressed ones.
package rq

import "github.com/pql-lang/pqlc/pkg/ids"

// RelationalQuery is the top-level RQ document.
type RelationalQuery struct {
	Version int
	Options map[string]string
	Tables  []*TableDecl
	Relation Relation
}

// TableDecl declares one named relation available to the main pipeline.
type TableDecl struct {
	ID       ids.TId
	Name     string // optional
	Relation Relation
}

// RelationColumnKind distinguishes a single named column from a wildcard
// slot.
type RelationColumnKind int

// Relation column kinds.
const (
	RelColSingle RelationColumnKind = iota
	RelColWildcard
)

// RelationColumn is one declared output column of a Relation.
type RelationColumn struct {
	Kind RelationColumnKind
	Name string // only meaningful for RelColSingle
}

// Relation is a (kind, declared columns) pair.
type Relation struct {
	Kind    RelationKind
	Columns []RelationColumn
}

// RelationKind is the sealed set of relation shapes.
type RelationKind interface{ relationKind() }

// PipelineRelation is a relation defined by a sequence of transforms.
type PipelineRelation struct{ Transforms []Transform }

func (PipelineRelation) relationKind() {}

// ExternRefRelation is a reference to an externally-defined table by
// dotted path (schema.table).
type ExternRefRelation struct{ Path []string }

func (ExternRefRelation) relationKind() {}

// RelationLiteralRow is one row of a materialized literal relation.
type RelationLiteralRow []Expr

// LiteralRelation is a compile-time-known set of rows. No stage of the
// compiler builds one: `from_text` resolves to a PL array of tuples.
type LiteralRelation struct {
	ColumnNames []string
	Rows        []RelationLiteralRow
}

func (LiteralRelation) relationKind() {}

// SStringRelation is a table-valued raw-SQL escape hatch.
type SStringRelation struct{ Parts []InterpolatePart }

func (SStringRelation) relationKind() {}
