package pq

import (
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// Preprocess runs the C9 rewrite chain over an RQ pipeline in order:
// normalize, prune inputs, distinct and union detection, reorder (spec.md
// §4.6 "PQ preprocessing"). No except or intersect detection is done.
func Preprocess(pipeline []rq.Transform, output []ids.CId) []SqlTransform {
	normalized := normalize(pipeline)
	pruned := pruneInputs(normalized, output)
	detected := detectSetOps(pruned)
	return reorder(detected)
}

// normalize swaps operands of `x = null` to `null = x` so later passes
// only need to check one side (spec.md §4.6 step 1).
func normalize(pipeline []rq.Transform) []rq.Transform {
	out := make([]rq.Transform, len(pipeline))
	for i, t := range pipeline {
		if f, ok := t.(rq.Filter); ok {
			out[i] = rq.Filter{Predicate: normalizeExpr(f.Predicate)}
		} else {
			out[i] = t
		}
	}
	return out
}

func normalizeExpr(e *rq.Expr) *rq.Expr {
	if e == nil {
		return nil
	}
	op, ok := e.Kind.(rq.Operator)
	if !ok {
		return e
	}
	args := make([]*rq.Expr, len(op.Args))
	for i, a := range op.Args {
		args[i] = normalizeExpr(a)
	}
	if op.Name == "std.eq" && len(args) == 2 && isNullLiteral(args[1]) && !isNullLiteral(args[0]) {
		args[0], args[1] = args[1], args[0]
	}
	return &rq.Expr{Kind: rq.Operator{Name: op.Name, Args: args}}
}

func isNullLiteral(e *rq.Expr) bool {
	if e == nil {
		return false
	}
	lit, ok := e.Kind.(rq.Literal)
	return ok && lit.Kind == rq.LitNull
}

// pruneInputs walks back-to-front accumulating used CIds, dropping unused
// columns from each From/Join (spec.md §4.6 step 2).
func pruneInputs(pipeline []rq.Transform, output []ids.CId) []rq.Transform {
	used := make(map[ids.CId]bool, len(output))
	for _, cid := range output {
		used[cid] = true
	}

	out := make([]rq.Transform, len(pipeline))
	copy(out, pipeline)

	for i := len(out) - 1; i >= 0; i-- {
		switch k := out[i].(type) {
		case rq.Select:
			for _, c := range k.Columns {
				used[c] = true
			}
		case rq.ComputeTransform:
			collectUsed(k.Compute.Expr, used)
		case rq.Filter:
			collectUsed(k.Predicate, used)
		case rq.Sort:
			for _, s := range k.By {
				used[s.Column] = true
			}
		case rq.Aggregate:
			for _, p := range k.Partition {
				used[p] = true
			}
			for _, c := range k.Compute {
				collectUsed(c.Expr, used)
			}
		case rq.Join:
			collectUsed(k.Filter, used)
			k.With.Columns = filterUsedColumns(k.With.Columns, used)
			out[i] = k
		case rq.From:
			k.Table.Columns = filterUsedColumns(k.Table.Columns, used)
			out[i] = k
		}
	}
	return out
}

func collectUsed(e *rq.Expr, used map[ids.CId]bool) {
	if e == nil {
		return
	}
	switch k := e.Kind.(type) {
	case rq.ColumnRef:
		used[k.ID] = true
	case rq.Operator:
		for _, a := range k.Args {
			collectUsed(a, used)
		}
	case rq.Case:
		for _, br := range k.Branches {
			collectUsed(br.Condition, used)
			collectUsed(br.Value, used)
		}
	}
}

func filterUsedColumns(cols []rq.TableRefColumn, used map[ids.CId]bool) []rq.TableRefColumn {
	var out []rq.TableRefColumn
	for _, c := range cols {
		if used[c.ID] || c.Column.Kind == rq.RelColWildcard {
			out = append(out, c)
		}
	}
	return out
}

// detectSetOps turns an unsorted Take{1..1} into DistinctOn (when
// partitioned) or Distinct, and an Append, optionally followed by Unique,
// into Union (spec.md §4.6 steps 3-6). Every other Take, partitioned or
// not, passes through unchanged, and no Except or Intersect is produced.
func detectSetOps(pipeline []rq.Transform) []SqlTransform {
	out := make([]SqlTransform, 0, len(pipeline))
	for i := 0; i < len(pipeline); i++ {
		t := pipeline[i]
		switch k := t.(type) {
		case rq.Take:
			if isOneRow(k.Range) && len(k.Sort) == 0 {
				if len(k.Partition) > 0 {
					out = append(out, DistinctOn{Partition: k.Partition})
				} else {
					out = append(out, Distinct{})
				}
				continue
			}
			out = append(out, Passthrough{Transform: k})
		case rq.Append:
			// Append optionally followed by Distinct -> Union.
			distinct := false
			if i+1 < len(pipeline) {
				if _, ok := pipeline[i+1].(rq.Unique); ok {
					distinct = true
					i++
				}
			}
			out = append(out, Union{SetOp{
				Bottom:   RelationExpr{Kind: RefExpr{Table: k.With.Source}},
				Distinct: distinct,
			}})
		default:
			out = append(out, Passthrough{Transform: t})
		}
	}
	return out
}

func isOneRow(r rq.IntRange) bool {
	return r.Start != nil && r.End != nil && *r.Start == 1 && *r.End == 1
}

// reorder moves cheap Computes across Sort/Take so they can be
// materialized earlier, unless the compute depends on a prior Sort
// (spec.md §4.6 step 7). Any Compute directly after a Sort or Take counts
// as cheap, except one that references a key of that Sort.
func reorder(pipeline []SqlTransform) []SqlTransform {
	out := make([]SqlTransform, len(pipeline))
	copy(out, pipeline)

	for i := len(out) - 1; i > 0; i-- {
		cur, ok := out[i].(Passthrough)
		if !ok {
			continue
		}
		ct, ok := cur.Transform.(rq.ComputeTransform)
		if !ok {
			continue
		}
		prev, ok := out[i-1].(Passthrough)
		if !ok {
			continue
		}
		_, prevIsSort := prev.Transform.(rq.Sort)
		_, prevIsTake := prev.Transform.(rq.Take)
		if !prevIsSort && !prevIsTake {
			continue
		}
		used := make(map[ids.CId]bool)
		collectUsed(ct.Compute.Expr, used)
		dependsOnSort := false
		if s, ok := prev.Transform.(rq.Sort); ok {
			for _, key := range s.By {
				if used[key.Column] {
					dependsOnSort = true
					break
				}
			}
		}
		if dependsOnSort {
			continue
		}
		out[i-1], out[i] = out[i], out[i-1]
	}
	return out
}
