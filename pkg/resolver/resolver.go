// Package resolver implements the resolver (C4, spec.md §4.2): a
// hand-written recursive-descent fold over a PL tree that resolves every
// Ident to a target id, assigns types and lineage, and reduces fully-
// applied FuncCalls to TransformCalls, inlined bodies, or RqOperators.
//
// Grounded on `semantic/resolver/transforms.rs` and
// `semantic/resolver/names.rs` in
// _examples/original_source/prqlc/prqlc/src/semantic/resolver/ for the
// exact dispatch semantics of each special function, expressed in the
// teacher's recursive-descent-over-a-sealed-interface idiom
// (_examples/leapstack-labs-leapsql/pkg/parser uses the same shape for
// parsing; here it folds instead of builds).
package resolver

import (
	"fmt"

	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/module"
	"github.com/pql-lang/pqlc/pkg/perrors"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// idGen is a simple monotonic counter for PL expr ids. Kept separate from
// pkg/ids's CId/TId/RIId generators since PL ids are a distinct namespace
// (spec.md §3 "Identifiers": "PL ids, CIds, TIds, and RIIds are four
// independent counters").
type idGen struct{ next int }

func (g *idGen) next_() int { v := g.next; g.next++; return v }

// windowContext carries the resolver's three ambient flags (spec.md §4.2
// "Window and aggregate context").
type windowContext struct {
	withinAggregate bool
	withinWindow    *pl.Frame
	withinGroup     []int
	sort            []pl.ColumnSort[*pl.Expr]
}

// Resolver folds PL trees against a module tree.
type Resolver struct {
	Root *module.Module
	ids  idGen
	ctx  windowContext

	// frameLineage tracks the lineage of the table currently in scope,
	// consulted when a folded call returns "a column" and needs a
	// synthesized window (spec.md §4.2 "Window and aggregate context").
	frameLineage *pl.Lineage
}

// New returns a Resolver over an already-populated module tree.
func New(root *module.Module) *Resolver {
	return &Resolver{Root: root}
}

func (r *Resolver) assignID(e *pl.Expr) {
	if e.ID == nil {
		id := r.ids.next_()
		e.ID = &id
	}
}

// Fold resolves e, returning a new, fully-resolved Expr tree.
func (r *Resolver) Fold(e *pl.Expr) (*pl.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch k := e.Kind.(type) {
	case pl.Ident:
		return r.foldIdent(e, k)
	case pl.Pipeline:
		return r.foldPipeline(e, k)
	case pl.FuncCall:
		return r.foldFuncCall(e, k)
	case pl.TupleExpr:
		return r.foldTuple(e, k)
	case pl.ArrayExpr:
		return r.foldArray(e, k)
	case pl.BinaryExpr:
		return r.foldBinary(e, k)
	case pl.UnaryExpr:
		return r.foldUnary(e, k)
	case pl.CaseExpr:
		return r.foldCase(e, k)
	case pl.RangeExpr:
		return r.foldRange(e, k)
	case pl.All:
		return r.foldAll(e, k)
	case pl.SStringExpr, pl.FStringExpr:
		return r.foldInterpolated(e)
	case pl.LiteralExpr:
		r.assignID(e)
		e.Ty = literalTy(k.Value)
		return e, nil
	case pl.FuncExpr:
		r.assignID(e)
		return e, nil
	case pl.ParamExpr, pl.TypeExpr, pl.InternalExpr:
		r.assignID(e)
		return e, nil
	case pl.TransformCallExpr, pl.RqOperatorExpr:
		r.assignID(e)
		return e, nil
	default:
		return nil, perrors.New(perrors.Unexpected{Found: fmt.Sprintf("expr kind %T", k)}).WithSpan(e.Span)
	}
}

func (r *Resolver) foldIdent(e *pl.Expr, id pl.Ident) (*pl.Expr, error) {
	path := ident.New(id.Path...)
	matches := r.lookup(path)
	switch len(matches) {
	case 0:
		if decl, ok := r.Root.Infer(path.Name()); ok {
			r.assignID(e)
			if decl.DeclaredAt != nil {
				e.TargetID = decl.DeclaredAt
			}
			return e, nil
		}
		return nil, perrors.NotFoundWithCandidates(path.String(), "", r.candidateColumns()).WithSpan(e.Span)
	case 1:
		r.assignID(e)
		decl, _ := r.Root.Get(matches[0])
		if decl != nil && decl.DeclaredAt != nil {
			e.TargetID = decl.DeclaredAt
		}
		if et, ok := r.exprTypeOf(decl); ok {
			e.Ty = et
		}
		if ty, lineage, ok := r.tableShapeOf(matches[0], decl); ok {
			e.Ty = ty
			e.Lineage = lineage
		}
		return e, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return nil, perrors.NotFoundWithCandidates(path.String(), "ambiguous", names).WithSpan(e.Span)
	}
}

// lookup implements the fallback chain spec.md §4.2 "Name resolution
// fallback": a fully-qualified lookup, then NS_THIS, then NS_THAT, then
// each redirect.
func (r *Resolver) lookup(path ident.Ident) []ident.Ident {
	if m := r.Root.Lookup(r.Root, path); len(m) > 0 {
		return m
	}
	for _, ns := range []string{module.NSThis, module.NSThat} {
		scoped := ident.Concat(ident.FromName(ns), path)
		if m := r.Root.Lookup(r.Root, scoped); len(m) > 0 {
			return m
		}
	}
	for _, redirect := range r.Root.Redirects {
		scoped := ident.Concat(redirect, path)
		if m := r.Root.Lookup(r.Root, scoped); len(m) > 0 {
			return m
		}
	}
	return nil
}

func (r *Resolver) candidateColumns() []string {
	var names []string
	if r.frameLineage != nil {
		for _, c := range r.frameLineage.Columns {
			if c.Kind == pl.ColSingle && c.Name != "" {
				names = append(names, c.Name)
			}
		}
	}
	return names
}

func (r *Resolver) exprTypeOf(d *module.Decl) (*pl.Ty, bool) {
	if d == nil {
		return nil, false
	}
	switch k := d.Kind.(type) {
	case module.TyDeclKind:
		ty := k.Ty
		return &ty, true
	default:
		return nil, false
	}
}

// tableShapeOf builds the relation Ty and seed Lineage a TableDeclKind
// declaration stands for, so that `from t` (which, per dispatchSpecial,
// simply returns the folded ident unchanged) hands the rest of the
// pipeline a table-shaped expr per spec.md §3's "every table-shaped expr
// carries Lineage" invariant.
//
// Each column is minted its own id, distinct from the table ident's own,
// so that a later bare reference to that column (TargetID pointing at the
// minted id) is distinguishable from a reference to the table itself —
// pkg/rq's lowerer keys its column mapping on exactly this id (see
// lowerTableRef/declareAsColumn in pkg/rq/lower.go).
func (r *Resolver) tableShapeOf(path ident.Ident, d *module.Decl) (*pl.Ty, *pl.Lineage, bool) {
	if d == nil {
		return nil, nil, false
	}
	table, ok := d.Kind.(module.TableDeclKind)
	if !ok {
		return nil, nil, false
	}
	tableID := r.ids.next_()
	fields := make([]pl.TupleField, len(table.Columns))
	columns := make([]pl.LineageColumn, len(table.Columns))
	for i, name := range table.Columns {
		colID := r.ids.next_()
		fields[i] = pl.TupleField{Kind: pl.FieldSingle, Name: name}
		columns[i] = pl.LineageColumn{Kind: pl.ColSingle, Name: name, TargetID: colID}
	}
	ty := pl.RelationTy(fields)
	ty.Name = path.Name()
	lineage := &pl.Lineage{
		Columns: columns,
		Inputs:  []pl.LineageInput{{ID: tableID, Name: path.Name(), Table: path}},
	}
	return &ty, lineage, true
}

func (r *Resolver) foldPipeline(e *pl.Expr, p pl.Pipeline) (*pl.Expr, error) {
	var cur *pl.Expr
	var err error
	for _, step := range p.Exprs {
		if cur == nil {
			cur, err = r.Fold(step)
		} else {
			cur, err = r.applyPipelineStep(cur, step)
		}
		if err != nil {
			return nil, err
		}
		if cur != nil && cur.Lineage != nil {
			r.frameLineage = cur.Lineage
		}
	}
	r.assignID(e)
	e.Ty, e.Lineage = cur.Ty, cur.Lineage
	e.ID = cur.ID
	return cur, nil
}

// applyPipelineStep folds `step` as a call with `cur` threaded in as the
// final positional argument, the way `from t | filter x` desugars to
// `filter x from_t` per the language's pipe semantics.
func (r *Resolver) applyPipelineStep(cur *pl.Expr, step *pl.Expr) (*pl.Expr, error) {
	call, ok := step.Kind.(pl.FuncCall)
	if !ok {
		return r.Fold(step)
	}
	withInput := pl.New(pl.FuncCall{Name: call.Name, Args: append(append([]*pl.Expr(nil), call.Args...), cur), NamedArgs: call.NamedArgs})
	withInput.Span = step.Span
	return r.Fold(withInput)
}

func (r *Resolver) foldTuple(e *pl.Expr, t pl.TupleExpr) (*pl.Expr, error) {
	fields := make([]*pl.Expr, len(t.Fields))
	tyFields := make([]pl.TupleField, len(t.Fields))
	for i, f := range t.Fields {
		folded, err := r.Fold(f)
		if err != nil {
			return nil, err
		}
		fields[i] = folded
		name := folded.Alias
		tyFields[i] = pl.TupleField{Kind: pl.FieldSingle, Name: name, Ty: folded.Ty}
	}
	r.assignID(e)
	e.Kind = pl.TupleExpr{Fields: fields}
	ty := pl.Ty{Kind: pl.TyTuple{Fields: tyFields}}
	e.Ty = &ty
	return e, nil
}

func (r *Resolver) foldArray(e *pl.Expr, a pl.ArrayExpr) (*pl.Expr, error) {
	elems := make([]*pl.Expr, len(a.Elements))
	for i, el := range a.Elements {
		folded, err := r.Fold(el)
		if err != nil {
			return nil, err
		}
		elems[i] = folded
	}
	r.assignID(e)
	e.Kind = pl.ArrayExpr{Elements: elems}
	if len(elems) > 0 && elems[0].Ty != nil {
		ty := pl.Ty{Kind: pl.TyArray{Elem: elems[0].Ty}}
		e.Ty = &ty
	}
	return e, nil
}

func (r *Resolver) foldRange(e *pl.Expr, rg pl.RangeExpr) (*pl.Expr, error) {
	start, err := r.Fold(rg.Start)
	if err != nil {
		return nil, err
	}
	end, err := r.Fold(rg.End)
	if err != nil {
		return nil, err
	}
	r.assignID(e)
	e.Kind = pl.RangeExpr{Start: start, End: end}
	return e, nil
}

func (r *Resolver) foldAll(e *pl.Expr, a pl.All) (*pl.Expr, error) {
	within, err := r.Fold(a.Within)
	if err != nil {
		return nil, err
	}
	except := make([]*pl.Expr, len(a.Except))
	for i, ex := range a.Except {
		folded, err := r.Fold(ex)
		if err != nil {
			return nil, err
		}
		except[i] = folded
	}
	r.assignID(e)
	e.Kind = pl.All{Within: within, Except: except}
	return e, nil
}

func (r *Resolver) foldInterpolated(e *pl.Expr) (*pl.Expr, error) {
	var items []pl.InterpolateItem
	switch k := e.Kind.(type) {
	case pl.SStringExpr:
		items = k.Parts
	case pl.FStringExpr:
		items = k.Parts
	}
	out := make([]pl.InterpolateItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.Kind == pl.InterpExpr {
			folded, err := r.Fold(it.Expr)
			if err != nil {
				return nil, err
			}
			out[i].Expr = folded
		}
	}
	switch e.Kind.(type) {
	case pl.SStringExpr:
		e.Kind = pl.SStringExpr{Parts: out}
	case pl.FStringExpr:
		e.Kind = pl.FStringExpr{Parts: out}
	}
	r.assignID(e)
	e.NeedsWindow = true
	return e, nil
}

func (r *Resolver) foldBinary(e *pl.Expr, b pl.BinaryExpr) (*pl.Expr, error) {
	left, err := r.Fold(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.Fold(b.Right)
	if err != nil {
		return nil, err
	}
	folded := &pl.Expr{Kind: pl.BinaryExpr{Op: b.Op, Left: left, Right: right}, Span: e.Span, Alias: e.Alias}
	r.assignID(folded)
	folded.Ty = binaryResultTy(b.Op, left.Ty, right.Ty)
	return analyzeBinary(folded)
}

func (r *Resolver) foldUnary(e *pl.Expr, u pl.UnaryExpr) (*pl.Expr, error) {
	inner, err := r.Fold(u.Expr)
	if err != nil {
		return nil, err
	}
	folded := &pl.Expr{Kind: pl.UnaryExpr{Op: u.Op, Expr: inner}, Span: e.Span, Alias: e.Alias}
	r.assignID(folded)
	folded.Ty = inner.Ty
	return analyzeUnary(folded)
}

func (r *Resolver) foldCase(e *pl.Expr, c pl.CaseExpr) (*pl.Expr, error) {
	branches := make([]pl.CaseBranch, len(c.Cases))
	for i, br := range c.Cases {
		cond, err := r.Fold(br.Condition)
		if err != nil {
			return nil, err
		}
		val, err := r.Fold(br.Value)
		if err != nil {
			return nil, err
		}
		branches[i] = pl.CaseBranch{Condition: cond, Value: val}
	}
	folded := &pl.Expr{Kind: pl.CaseExpr{Cases: branches}, Span: e.Span, Alias: e.Alias}
	r.assignID(folded)
	if len(branches) > 0 {
		folded.Ty = branches[0].Value.Ty
	}
	return analyzeCase(folded)
}

func literalTy(v pl.Literal) *pl.Ty {
	var t pl.Ty
	switch v.Kind {
	case pl.LitInteger:
		t = pl.TyInt()
	case pl.LitFloat:
		t = pl.TyFloat()
	case pl.LitBoolean:
		t = pl.TyBool()
	case pl.LitString, pl.LitDate, pl.LitTime, pl.LitTimestamp:
		t = pl.TyText()
	default:
		t = pl.Ty{}
	}
	return &t
}

func binaryResultTy(op pl.BinOp, left, right *pl.Ty) *pl.Ty {
	switch op {
	case pl.OpEq, pl.OpNe, pl.OpLt, pl.OpLe, pl.OpGt, pl.OpGe, pl.OpAnd, pl.OpOr:
		b := pl.TyBool()
		return &b
	default:
		if left != nil {
			return left
		}
		return right
	}
}
