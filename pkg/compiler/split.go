package compiler

import (
	"sort"

	"github.com/pql-lang/pqlc/pkg/anchor"
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pq"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// splitIntoCtes drives the anchor algorithm (spec.md §4.5 "Anchor
// (C7-C8)") to completion: it repeatedly extracts the largest SELECT-able
// suffix of pipeline, and whenever a preceding remainder survives,
// recurses on it as its own CTE, until the whole pipeline has been
// partitioned into zero-or-more Ctes plus one main SqlRelation.
func splitIntoCtes(ctx *anchor.Context, pipeline []rq.Transform, output []ids.CId) ([]pq.Cte, *pq.SqlRelation) {
	extracted := anchor.ExtractAtomic(pipeline, output)
	if len(extracted.Preceding) == 0 {
		return nil, buildSqlRelation(ctx, extracted.Atomic)
	}

	splitOutput := requiredExternalCids(extracted.Atomic)
	rewrittenAtomic, tid := ctx.AnchorSplit(extracted.Preceding, extracted.Atomic, splitOutput)

	preceding := append(append([]rq.Transform{}, extracted.Preceding...), rq.Select{Columns: splitOutput})
	moreCtes, precedingRelation := splitIntoCtes(ctx, preceding, splitOutput)

	// Name is filled in once every split has been discovered and
	// AssignTableNames has run over the complete set (spec.md §4.5.2).
	ctx.RegisterTable(tid)
	cte := pq.Cte{Table: tid, Relation: precedingRelation}

	ctes := append(moreCtes, cte)
	return ctes, buildSqlRelation(ctx, rewrittenAtomic)
}

// buildSqlRelation runs pq.Preprocess over one atomic pipeline and
// resolves its leading rq.From (spec.md §4.5 "relation_instances": "a
// pipeline's own source table is itself a relation instance") into a
// pq.FromInstance, registering the anchor.RelationInstance the emitter
// looks it up by.
func buildSqlRelation(ctx *anchor.Context, atomic []rq.Transform) *pq.SqlRelation {
	output := finalSelect(atomic)
	transforms := pq.Preprocess(atomic, output)

	for i, t := range transforms {
		pt, ok := t.(pq.Passthrough)
		if !ok {
			continue
		}
		from, ok := pt.Transform.(rq.From)
		if !ok {
			continue
		}
		ri := ctx.RegisterRelationInstance(from.Table)
		transforms[i] = pq.FromInstance{Instance: ri.ID}
		break
	}

	return &pq.SqlRelation{Transforms: transforms, Columns: outputColumns(ctx, output)}
}

// finalSelect returns the column list of pipeline's trailing Select, or
// nil if it has none (a bare From-only pipeline).
func finalSelect(pipeline []rq.Transform) []ids.CId {
	if len(pipeline) == 0 {
		return nil
	}
	if sel, ok := pipeline[len(pipeline)-1].(rq.Select); ok {
		return sel.Columns
	}
	return nil
}

// outputColumns builds the RelationColumn list a SqlRelation reports for
// its own final projection, consulting ctx.ColumnNames for each CId's
// emitted name, falling back to a wildcard marker for unnamed carry-
// through columns (spec.md §4.6 "Wildcard preservation").
func outputColumns(ctx *anchor.Context, output []ids.CId) []rq.RelationColumn {
	out := make([]rq.RelationColumn, 0, len(output))
	for _, c := range output {
		name := ctx.ColumnNames[c]
		if name == "" {
			out = append(out, rq.RelationColumn{Kind: rq.RelColWildcard})
			continue
		}
		out = append(out, rq.RelationColumn{Kind: rq.RelColSingle, Name: name})
	}
	return out
}

// requiredExternalCids computes the CId set a split-off preceding
// pipeline must expose as its own output: every CId atomic's transforms
// reference, minus the ones atomic itself produces (its own From/Join
// table columns and its own Computes), sorted for determinism (spec.md
// §4.5.1 "when a split is required").
func requiredExternalCids(atomic []rq.Transform) []ids.CId {
	referenced := make(map[ids.CId]bool)
	produced := make(map[ids.CId]bool)

	collect := func(e *rq.Expr) {
		cc := anchor.NewCidCollector()
		cc.Collect(e)
		for c := range cc.Found {
			referenced[c] = true
		}
	}

	for _, t := range atomic {
		switch k := t.(type) {
		case rq.From:
			for _, c := range k.Table.Columns {
				produced[c.ID] = true
			}
		case rq.Join:
			for _, c := range k.With.Columns {
				produced[c.ID] = true
			}
			collect(k.Filter)
		case rq.Append:
			for _, c := range k.With.Columns {
				produced[c.ID] = true
			}
		case rq.ComputeTransform:
			produced[k.Compute.ID] = true
			collect(k.Compute.Expr)
		case rq.Aggregate:
			for _, p := range k.Partition {
				referenced[p] = true
			}
			for _, c := range k.Compute {
				produced[c.ID] = true
				collect(c.Expr)
			}
		case rq.Filter:
			collect(k.Predicate)
		case rq.Sort:
			for _, s := range k.By {
				referenced[s.Column] = true
			}
		case rq.Take:
			for _, p := range k.Partition {
				referenced[p] = true
			}
			for _, s := range k.Sort {
				referenced[s.Column] = true
			}
		case rq.Select:
			for _, c := range k.Columns {
				referenced[c] = true
			}
		}
	}

	var out []ids.CId
	for c := range referenced {
		if !produced[c] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
