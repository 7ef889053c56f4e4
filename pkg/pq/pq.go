// Package pq implements the PQ (partitioned) tree (spec.md §3 "PQ
// (partitioned) tree"): the further refinement of RQ used directly by the
// SQL emitter, plus the preprocessing (C9) and postprocessing (C10)
// rewrite passes that produce it.
package pq

import (
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// SqlTransform is the sealed superset of rq.Transform used once a pipeline
// has been anchored: everything rq.Transform offers, plus Distinct,
// DistinctOn, Union, Except, Intersect, and a RIId-addressed From (spec.md
// §3 "SqlTransform<RelExpr, Super>").
type SqlTransform interface{ sqlTransform() }

// FromInstance replaces rq.From once a pipeline is anchored: it names a
// relation instance rather than a bare table id.
type FromInstance struct{ Instance ids.RIId }

func (FromInstance) sqlTransform() {}

// Passthrough wraps an rq.Transform that needs no PQ-specific shape
// (Compute, Select, Filter, Sort, Take, Join, Aggregate, Append, Loop,
// Unique all pass through unchanged).
type Passthrough struct{ Transform rq.Transform }

func (Passthrough) sqlTransform() {}

// Distinct deduplicates across every output column.
type Distinct struct{}

func (Distinct) sqlTransform() {}

// DistinctOn deduplicates per the given partition columns, keeping the
// first row under the active sort.
type DistinctOn struct{ Partition []ids.CId }

func (DistinctOn) sqlTransform() {}

// SetOp is shared shape for Union/Except/Intersect.
type SetOp struct {
	Bottom   RelationExpr
	Distinct bool
}

// Union is `bottom` stacked beneath the pipeline (spec.md §4.6 "Union").
type Union struct{ SetOp }

func (Union) sqlTransform() {}

// Except removes rows present in `bottom` (spec.md §4.6 "Except").
type Except struct{ SetOp }

func (Except) sqlTransform() {}

// Intersect keeps only rows also present in `bottom` (spec.md §4.6
// "Intersect").
type Intersect struct{ SetOp }

func (Intersect) sqlTransform() {}

// RelationExprKind is Ref(TId) or SubQuery(SqlRelation) (spec.md §3
// "RelationExpr").
type RelationExprKind interface{ relationExprKind() }

// RefExpr points at an already-declared table by id.
type RefExpr struct{ Table ids.TId }

func (RefExpr) relationExprKind() {}

// SubQueryExpr inlines a relation directly rather than via a CTE
// reference.
type SubQueryExpr struct{ Relation *SqlRelation }

func (SubQueryExpr) relationExprKind() {}

// RelationExpr wraps a RelationExprKind.
type RelationExpr struct{ Kind RelationExprKind }

// SqlRelation is an anchored atomic pipeline: a sequence of SqlTransform
// over a known set of output columns.
type SqlRelation struct {
	Transforms []SqlTransform
	Columns    []rq.RelationColumn
}

// Cte is one WITH-clause entry: a table id, its generated name, and the
// relation defining it.
type Cte struct {
	Table    ids.TId
	Name     string
	Relation *SqlRelation
	// Sort is the final sort the CTE's own SELECT emits, inherited by
	// callers per spec.md §4.7 "PQ postprocessing".
	Sort []pl.ColumnSort[ids.CId]
}

// SqlQuery is the fully anchored and partitioned compilation unit handed
// to the emitter (spec.md §3 "SqlQuery").
type SqlQuery struct {
	Ctes         []Cte
	MainRelation *SqlRelation
}
