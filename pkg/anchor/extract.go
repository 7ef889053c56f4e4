package anchor

import (
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// Requirement is the tightest Complexity a CId's defining expression may
// have at some point in a pipeline (spec.md §4.5.1 "get_requirements").
type Requirement struct {
	CID        ids.CId
	MaxAllowed Complexity
}

// Requirements is a CId-indexed set of Requirement, kept at the tightest
// (i.e. numerically largest, see Complexity ordering) bound seen so far.
type Requirements map[ids.CId]Complexity

// Tighten records that cid must be at most allowed, keeping the stricter
// of any existing and the new bound.
func (r Requirements) Tighten(cid ids.CId, allowed Complexity) {
	if existing, ok := r[cid]; !ok || allowed > existing {
		r[cid] = allowed
	}
}

// stepClass classifies a Transform for is_split_required's legal-order
// check (spec.md §4.5.1): "Legal order: From, Join*, Filter* (where),
// Aggregate, Filter* (having), Compute, Sort, Take, Distinct, Set-ops,
// Loop."
type stepClass int

const (
	classFrom stepClass = iota
	classJoin
	classFilterWhere
	classAggregate
	classFilterHaving
	classCompute
	classSort
	classTake
	classDistinct
	classSetOp
	classLoop
	classOther
)

// classify maps t to its stepClass. sawAggregate reports whether an
// Aggregate comes later in the pipeline (already crossed walking
// backward), which makes a Filter a WHERE rather than a HAVING.
func classify(t rq.Transform, sawAggregate bool) stepClass {
	switch t.(type) {
	case rq.From:
		return classFrom
	case rq.Join:
		return classJoin
	case rq.Filter:
		if sawAggregate {
			return classFilterWhere
		}
		return classFilterHaving
	case rq.Aggregate:
		return classAggregate
	case rq.ComputeTransform:
		return classCompute
	case rq.Sort:
		return classSort
	case rq.Take:
		return classTake
	case rq.Unique:
		return classDistinct
	case rq.Append, rq.Loop:
		return classLoop
	default:
		return classOther
	}
}

// legalOrder is the total order a single SELECT's clauses may appear in,
// read back-to-front during atomic extraction (spec.md §4.5.1).
var legalOrder = []stepClass{
	classFrom, classJoin, classFilterWhere, classAggregate, classFilterHaving,
	classCompute, classSort, classTake, classDistinct, classSetOp, classLoop,
}

func legalRank(c stepClass) int {
	for i, s := range legalOrder {
		if s == c {
			return i
		}
	}
	return len(legalOrder)
}

// isSplitRequired reports whether appending a transform of class cur,
// immediately before a suffix whose minimum class rank is minFollowingRank,
// would violate the legal single-SELECT clause order (spec.md §4.5.1
// "is_split_required").
func isSplitRequired(cur stepClass, minFollowingRank int) bool {
	if minFollowingRank < 0 {
		return false
	}
	return legalRank(cur) > minFollowingRank
}

// getRequirements computes the CId requirements a transform imposes on its
// inputs, given whether an Aggregate has already been crossed walking
// backward (spec.md §4.5.1 "get_requirements").
func getRequirements(t rq.Transform, pastAggregate bool) Requirements {
	reqs := make(Requirements)
	switch k := t.(type) {
	case rq.ComputeTransform:
		allowed := ComplexityPlain
		if InferComplexity(k.Compute) == ComplexityPlain {
			allowed = ComplexityAggregation
		}
		cc := NewCidCollector()
		cc.Collect(k.Compute.Expr)
		for cid := range cc.Found {
			reqs.Tighten(cid, allowed)
		}
	case rq.Filter:
		allowed := ComplexityAggregation
		if pastAggregate {
			allowed = ComplexityPlain
		}
		cc := NewCidCollector()
		cc.Collect(k.Predicate)
		for cid := range cc.Found {
			reqs.Tighten(cid, allowed)
		}
	case rq.Sort:
		for _, by := range k.By {
			reqs.Tighten(by.Column, ComplexityAggregation)
		}
	case rq.Take:
		for _, p := range k.Partition {
			reqs.Tighten(p, ComplexityAggregation)
		}
		for _, s := range k.Sort {
			reqs.Tighten(s.Column, ComplexityAggregation)
		}
	case rq.Aggregate:
		for _, p := range k.Partition {
			reqs.Tighten(p, ComplexityAggregation)
		}
		for _, c := range k.Compute {
			cc := NewCidCollector()
			cc.Collect(c.Expr)
			for cid := range cc.Found {
				reqs.Tighten(cid, ComplexityAggregation)
			}
		}
	case rq.Join:
		cc := NewCidCollector()
		cc.Collect(k.Filter)
		for cid := range cc.Found {
			reqs.Tighten(cid, ComplexityAggregation)
		}
	}
	return reqs
}

// canMaterialize reports whether a Compute's own complexity satisfies the
// tightest requirement recorded so far for its CId (spec.md §4.5.1
// "can_materialize"). With Complexity ordered Aggregation < Windowed <
// NonGroup < Plain, a requirement of Aggregation admits every compute and
// a requirement of Plain admits only plain ones, so the compute's
// complexity must be >= the requirement.
func canMaterialize(c rq.Compute, reqs Requirements) bool {
	req, ok := reqs[c.ID]
	if !ok {
		return true
	}
	return InferComplexity(c) >= req
}

// Extracted is the result of extract_atomic: the maximal suffix that fits
// one SELECT, and whatever pipeline precedes it (possibly empty).
type Extracted struct {
	Atomic    []rq.Transform
	Preceding []rq.Transform
}

// ExtractAtomic returns the maximal suffix of pipeline that fits into one
// SELECT (spec.md §4.5.1). output is the CIds produced by the pipeline's
// final Select, seeded into the requirement set at ComplexityAggregation
// (any complexity allowed at the output position).
func ExtractAtomic(pipeline []rq.Transform, output []ids.CId) Extracted {
	reqs := make(Requirements)
	for _, cid := range output {
		reqs.Tighten(cid, ComplexityAggregation)
	}

	n := len(pipeline)
	splitAt := 0 // index; everything at/after this index is atomic
	sawAggregate := false
	minFollowingRank := -1

	for i := n - 1; i >= 0; i-- {
		t := pipeline[i]
		cls := classify(t, sawAggregate)

		if isSplitRequired(cls, minFollowingRank) {
			splitAt = i + 1
			break
		}

		if c, ok := t.(rq.ComputeTransform); ok {
			if !canMaterialize(c.Compute, reqs) {
				splitAt = i + 1
				break
			}
		}

		for cid, allowed := range getRequirements(t, sawAggregate) {
			reqs.Tighten(cid, allowed)
		}

		if cls == classAggregate {
			sawAggregate = true
		}
		if r := legalRank(cls); minFollowingRank < 0 || r < minFollowingRank {
			minFollowingRank = r
		}
		splitAt = i
	}

	return Extracted{
		Atomic:    pipeline[splitAt:],
		Preceding: pipeline[:splitAt],
	}
}

// AnchorSplit allocates the new table id that preceding is materialized
// under, and rewrites atomic to read from it (spec.md §4.5.1
// "anchor_split"). preceding itself is not read here: the caller turns it
// into that table's relation. The new table's leading
// rq.From is resolved into an actual relation instance by whichever stage
// later renders this rewritten pipeline (buildSqlRelation), since only
// that stage knows whether atomic is being rendered standalone or as
// another CTE's body.
func (c *Context) AnchorSplit(preceding []rq.Transform, atomic []rq.Transform, splitOutput []ids.CId) ([]rq.Transform, ids.TId) {
	tid := c.gen.TId.Next()

	redirects := make(map[ids.CId]ids.CId, len(splitOutput))
	var cols []rq.TableRefColumn
	for _, old := range splitOutput {
		newCid := c.gen.CId.Next()
		redirects[old] = newCid
		name := c.ColumnNames[old]
		cols = append(cols, rq.TableRefColumn{
			Column: rq.RelationColumn{Kind: rq.RelColSingle, Name: name},
			ID:     newCid,
		})
	}

	c.TableDecls[tid] = &SqlTableDecl{ID: tid, Status: NotYetDefined}

	redirector := &CidRedirector{Redirects: redirects}
	rewritten := make([]rq.Transform, 0, len(atomic)+1)
	rewritten = append(rewritten, rq.From{Table: rq.TableRef{Source: tid, Columns: cols}})
	for _, t := range atomic {
		rewritten = append(rewritten, redirectTransform(t, redirector))
	}

	_ = preceding
	return rewritten, tid
}

func redirectTransform(t rq.Transform, r *CidRedirector) rq.Transform {
	switch k := t.(type) {
	case rq.ComputeTransform:
		k.Compute.Expr = r.Redirect(k.Compute.Expr)
		return k
	case rq.Filter:
		k.Predicate = r.Redirect(k.Predicate)
		return k
	case rq.Select:
		return rq.Select{Columns: redirectCids(k.Columns, r)}
	case rq.Sort:
		return rq.Sort{By: redirectSortKeys(k.By, r)}
	case rq.Take:
		k.Partition = redirectCids(k.Partition, r)
		k.Sort = redirectSortKeys(k.Sort, r)
		return k
	case rq.Aggregate:
		k.Partition = redirectCids(k.Partition, r)
		for i := range k.Compute {
			k.Compute[i].Expr = r.Redirect(k.Compute[i].Expr)
		}
		return k
	case rq.Join:
		k.Filter = r.Redirect(k.Filter)
		return k
	default:
		return t
	}
}

func redirectCid(cid ids.CId, r *CidRedirector) ids.CId {
	if to, ok := r.Redirects[cid]; ok {
		return to
	}
	return cid
}

func redirectCids(cids []ids.CId, r *CidRedirector) []ids.CId {
	out := make([]ids.CId, len(cids))
	for i, c := range cids {
		out[i] = redirectCid(c, r)
	}
	return out
}

func redirectSortKeys(by []pl.ColumnSort[ids.CId], r *CidRedirector) []pl.ColumnSort[ids.CId] {
	out := make([]pl.ColumnSort[ids.CId], len(by))
	for i, s := range by {
		out[i] = pl.ColumnSort[ids.CId]{Direction: s.Direction, Column: redirectCid(s.Column, r)}
	}
	return out
}
