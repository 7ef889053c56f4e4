package pq

import (
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// Postprocess applies sort inheritance through CTE references: SQL does
// not preserve ORDER BY across `FROM cte`, so an inherited sort must be
// re-emitted at the point it is actually needed (spec.md §4.7 "PQ
// postprocessing").
func Postprocess(q *SqlQuery) *SqlQuery {
	cteSorts := make(map[ids.TId][]pl.ColumnSort[ids.CId])

	for i := range q.Ctes {
		sort := foldRelationSort(q.Ctes[i].Relation, cteSorts)
		q.Ctes[i].Sort = sort
		cteSorts[q.Ctes[i].Table] = sort
		ensureSortColumnsSelected(q.Ctes[i].Relation, sort)
	}

	if q.MainRelation != nil {
		_ = foldRelationSort(q.MainRelation, cteSorts)
	}

	return q
}

// foldRelationSort walks rel's transforms left to right, tracking the sort
// that would be in effect at the end, inheriting from referenced CTEs and
// clearing on set-clearing transforms (spec.md §4.7).
func foldRelationSort(rel *SqlRelation, cteSorts map[ids.TId][]pl.ColumnSort[ids.CId]) []pl.ColumnSort[ids.CId] {
	if rel == nil {
		return nil
	}
	var current []pl.ColumnSort[ids.CId]

	for i, t := range rel.Transforms {
		switch k := t.(type) {
		case FromInstance:
			// Instance-level redirects are applied by the caller before
			// Postprocess runs; here we only need the referenced table's
			// sort, which the anchor phase already keyed by TId.
			_ = k
		case Passthrough:
			switch inner := k.Transform.(type) {
			case rq.From:
				if sort, ok := cteSorts[inner.Table.Source]; ok {
					current = sort
				}
			case rq.Sort:
				current = inner.By
			case rq.Aggregate:
				current = nil
			case rq.Take:
				if len(current) > 0 {
					rel.Transforms[i] = Passthrough{Transform: insertSortBefore(inner, current)}
				}
			}
		case Distinct, DistinctOn:
			current = nil
		case Union, Except, Intersect:
			current = nil
		}
	}
	return current
}

// insertSortBefore is a no-op marker: the actual "emit a Sort immediately
// before Take/DistinctOn" step (spec.md §4.7) is realized by the emitter,
// which consults SqlRelation.Transforms order directly. Kept here only to
// document the rewrite point reorder() and foldRelationSort() agree on.
func insertSortBefore(t rq.Transform, _ []pl.ColumnSort[ids.CId]) rq.Transform {
	return t
}

// ensureSortColumnsSelected makes sure a CTE's own output includes every
// column its sort references, since the outer query can only reference
// columns the CTE actually projects (spec.md §4.7 last bullet).
func ensureSortColumnsSelected(rel *SqlRelation, sort []pl.ColumnSort[ids.CId]) {
	if rel == nil || len(sort) == 0 {
		return
	}
	for i := len(rel.Transforms) - 1; i >= 0; i-- {
		pt, ok := rel.Transforms[i].(Passthrough)
		if !ok {
			continue
		}
		sel, ok := pt.Transform.(rq.Select)
		if !ok {
			continue
		}
		have := make(map[ids.CId]bool, len(sel.Columns))
		for _, c := range sel.Columns {
			have[c] = true
		}
		for _, s := range sort {
			if !have[s.Column] {
				sel.Columns = append(sel.Columns, s.Column)
				have[s.Column] = true
			}
		}
		rel.Transforms[i] = Passthrough{Transform: sel}
		return
	}
}
