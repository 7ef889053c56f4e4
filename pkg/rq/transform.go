package rq

import (
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// TableRef binds a relation instance into a pipeline: the TId it
// references, an optional alias, and the column mapping exposed under that
// instance (spec.md §3 "TableRef").
type TableRef struct {
	Source  ids.TId
	Name    string // optional alias
	Columns []TableRefColumn
}

// TableRefColumn pairs a declared RelationColumn with the CId it is bound
// to in the referencing pipeline.
type TableRefColumn struct {
	Column RelationColumn
	ID     ids.CId
}

// Compute is a single computed column: an id, the expression producing it,
// an optional window context, and whether it is itself an aggregation
// (spec.md §3 "Compute").
type Compute struct {
	ID            ids.CId
	Expr          *Expr
	Window        *Window
	IsAggregation bool
}

// Window carries the partition/frame/sort an OVER clause needs, copied
// down from the resolved pl.TransformCall during lowering (spec.md §4.4).
type Window struct {
	Partition []ids.CId
	Frame     *pl.Frame
	Sort      []pl.ColumnSort[ids.CId]
}

// Transform is the sealed set of RQ pipeline steps (spec.md §3
// "Transform").
type Transform interface{ transform() }

// From introduces a relation instance as the pipeline's input.
type From struct{ Table TableRef }

func (From) transform() {}

// ComputeTransform adds one computed column.
type ComputeTransform struct{ Compute Compute }

func (ComputeTransform) transform() {}

// Select narrows the pipeline's output to exactly these columns, in order.
type Select struct{ Columns []ids.CId }

func (Select) transform() {}

// Filter keeps only rows matching the predicate.
type Filter struct{ Predicate *Expr }

func (Filter) transform() {}

// Aggregate collapses the pipeline to one row per Partition, computing
// Compute for each group.
type Aggregate struct {
	Partition []ids.CId
	Compute   []Compute
}

func (Aggregate) transform() {}

// Sort orders rows by the given keys.
type Sort struct{ By []pl.ColumnSort[ids.CId] }

func (Sort) transform() {}

// Take keeps the rows in Range, within each Partition, after ordering by
// Sort.
type Take struct {
	Range     IntRange
	Partition []ids.CId
	Sort      []pl.ColumnSort[ids.CId]
}

// IntRange is an integer row range, either bound optional (spec.md §3
// "Take"). 1-based and inclusive, matching PQL's `1..n` convention.
type IntRange struct {
	Start *int
	End   *int
}

func (Take) transform() {}

// Join combines With into the pipeline on Filter.
type Join struct {
	Side   pl.JoinSide
	With   TableRef
	Filter *Expr
}

func (Join) transform() {}

// Append stacks With's rows beneath the pipeline (no dedup).
type Append struct{ With TableRef }

func (Append) transform() {}

// Loop repeatedly applies Body until it yields no rows, emitted as a
// recursive CTE.
type Loop struct{ Body []Transform }

func (Loop) transform() {}

// Unique drops duplicate rows across every column.
type Unique struct{}

func (Unique) transform() {}
