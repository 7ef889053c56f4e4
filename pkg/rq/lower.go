package rq

import (
	"fmt"

	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// Lowerer converts a resolved PL tree into RQ (spec.md §4.4 "Lowering").
// It owns the shared CId generator (ids are never reused, and the lowerer
// is the only writer during this phase — spec.md §5 "Shared resources").
type Lowerer struct {
	gen *ids.Generators

	tables []*TableDecl

	// columnMapping[exprID][name] = the CId that name resolves to at that
	// expr's position in its pipeline (spec.md §4.4 "a fresh column mapping
	// per instance").
	columnMapping map[int]map[string]ids.CId

	// columnOf tracks, for bare-column-ref exprs with an assigned id, the
	// CId that expr IS (so declare_as_column can return it directly instead
	// of emitting a redundant Compute).
	columnOf map[int]ids.CId

	// pendingComputes holds Computes emitted by declareAsColumn until a
	// caller drains the ones it wants via takeComputes/popComputes.
	pendingComputes []Compute

	// names records the source-level name each CId was declared under
	// (an assign's alias, or a bare column ref's own name), consulted by
	// the anchor/emitter stages to label SELECT items (spec.md §4.5.2).
	names map[ids.CId]string
}

// NewLowerer builds a Lowerer sharing gen with the rest of the compiler
// pipeline.
func NewLowerer(gen *ids.Generators) *Lowerer {
	return &Lowerer{
		gen:           gen,
		columnMapping: make(map[int]map[string]ids.CId),
		columnOf:      make(map[int]ids.CId),
		names:         make(map[ids.CId]string),
	}
}

// ColumnNames returns the CId -> source name mapping accumulated while
// lowering, for the anchor context to seed its own ColumnNames table.
func (lw *Lowerer) ColumnNames() map[ids.CId]string { return lw.names }

// Lower walks the main-pipeline Expr, producing the transforms and final
// output column list for one relation (spec.md §4.4).
func (lw *Lowerer) Lower(root *pl.Expr) ([]Transform, []ids.CId, error) {
	transforms, err := lw.lowerPipeline(root)
	if err != nil {
		return nil, nil, err
	}
	outputs, err := lw.pushSelect(root, transforms)
	if err != nil {
		return nil, nil, err
	}
	transforms = append(transforms, Select{Columns: outputs})
	return transforms, outputs, nil
}

// Tables returns every TableDecl registered while lowering (one per
// table-shaped From introduced).
func (lw *Lowerer) Tables() []*TableDecl { return lw.tables }

func (lw *Lowerer) lowerPipeline(e *pl.Expr) ([]Transform, error) {
	switch k := e.Kind.(type) {
	case pl.Pipeline:
		var out []Transform
		for _, step := range k.Exprs {
			ts, err := lw.lowerStep(step)
			if err != nil {
				return nil, err
			}
			out = append(out, ts...)
		}
		return out, nil
	default:
		return lw.lowerStep(e)
	}
}

func (lw *Lowerer) lowerStep(e *pl.Expr) ([]Transform, error) {
	switch k := e.Kind.(type) {
	case pl.Ident:
		return lw.lowerTableRef(e, k)
	case pl.TransformCallExpr:
		return lw.lowerTransformCall(e, k.Call)
	default:
		return nil, fmt.Errorf("rq: cannot lower pipeline step of kind %T", k)
	}
}

// lowerTableRef handles `Ident` pointing at a TableDecl: becomes
// Transform::From(TableRef) with a fresh column mapping per instance
// (spec.md §4.4).
func (lw *Lowerer) lowerTableRef(e *pl.Expr, ident pl.Ident) ([]Transform, error) {
	tid := lw.gen.TId.Next()
	var cols []TableRefColumn
	mapping := make(map[string]ids.CId)

	if e.Lineage != nil {
		for _, col := range e.Lineage.Columns {
			if col.Kind != pl.ColSingle {
				continue
			}
			cid := lw.gen.CId.Next()
			cols = append(cols, TableRefColumn{Column: RelationColumn{Kind: RelColSingle, Name: col.Name}, ID: cid})
			mapping[col.Name] = cid
			lw.names[cid] = col.Name
			if col.TargetID != 0 {
				lw.columnOf[col.TargetID] = cid
			}
		}
	}

	decl := &TableDecl{
		ID:       tid,
		Name:     ident.Path[len(ident.Path)-1],
		Relation: Relation{Kind: ExternRefRelation{Path: ident.Path}},
	}
	lw.tables = append(lw.tables, decl)

	if e.HasID() {
		lw.columnMapping[e.AssignedID()] = mapping
	}

	return []Transform{From{Table: TableRef{Source: tid, Name: decl.Name, Columns: cols}}}, nil
}

// lowerTransformCall dispatches on the resolved TransformCall kind,
// lowering the input pipeline first, then appending this step's own
// Transform(s) (spec.md §4.4).
func (lw *Lowerer) lowerTransformCall(e *pl.Expr, call *pl.TransformCall) ([]Transform, error) {
	input, err := lw.lowerPipeline(call.Input)
	if err != nil {
		return nil, err
	}

	switch k := call.Kind.(type) {
	case pl.SelectKind:
		cids, err := lw.declareTuple(k.Assigns)
		if err != nil {
			return nil, err
		}
		computed := lw.takeComputes(cids)
		return append(append(input, computed...), Select{Columns: cids}), nil

	case pl.DeriveKind:
		cids, err := lw.declareTuple(k.Assigns)
		if err != nil {
			return nil, err
		}
		return append(input, lw.takeComputes(cids)...), nil

	case pl.FilterKind:
		return append(input, Filter{Predicate: lw.lowerScalar(k.Filter)}), nil

	case pl.AggregateKind:
		cids, err := lw.declareTuple(k.Assigns)
		if err != nil {
			return nil, err
		}
		return append(input, Aggregate{Partition: lw.partitionCIds(call), Compute: lw.popComputes(cids)}), nil

	case pl.SortKind:
		return append(input, Sort{By: lw.lowerSortKeys(k.By)}), nil

	case pl.TakeKind:
		rng := lw.lowerIntRange(k.Range)
		return append(input, Take{Range: rng, Partition: lw.partitionCIds(call), Sort: lw.lowerSortKeys(call.Sort)}), nil

	case pl.JoinKind:
		withTransforms, err := lw.lowerPipeline(k.With)
		if err != nil {
			return nil, err
		}
		ref, ok := soleFrom(withTransforms)
		if !ok {
			return nil, fmt.Errorf("rq: join target did not lower to a single relation reference")
		}
		return append(input, Join{Side: k.Side, With: ref, Filter: lw.lowerScalar(k.Filter)}), nil

	case pl.GroupKind:
		// group's pipeline has already been simulated by the resolver into
		// an Aggregate-shaped TransformCall chain; lower it as a nested
		// pipeline and splice its transforms in directly.
		inner, err := lw.lowerPipeline(k.Pipeline)
		if err != nil {
			return nil, err
		}
		return append(input, inner...), nil

	case pl.WindowKind_:
		inner, err := lw.lowerPipeline(k.Pipeline)
		if err != nil {
			return nil, err
		}
		return append(input, inner...), nil

	case pl.AppendKind:
		bottomTransforms, err := lw.lowerPipeline(k.Bottom)
		if err != nil {
			return nil, err
		}
		ref, ok := soleFrom(bottomTransforms)
		if !ok {
			return nil, fmt.Errorf("rq: append target did not lower to a single relation reference")
		}
		return append(input, Append{With: ref}), nil

	case pl.LoopKind:
		body, err := lw.lowerPipeline(k.Pipeline)
		if err != nil {
			return nil, err
		}
		return append(input, Loop{Body: body}), nil

	default:
		return nil, fmt.Errorf("rq: unhandled transform kind %T", k)
	}
}

// declareTuple walks a resolved tuple expression, calling declareAsColumn
// for each field (spec.md §4.4).
func (lw *Lowerer) declareTuple(tuple *pl.Expr) ([]ids.CId, error) {
	t, ok := tuple.Kind.(pl.TupleExpr)
	if !ok {
		return nil, fmt.Errorf("rq: expected resolved tuple, got %T", tuple.Kind)
	}
	var out []ids.CId
	for _, field := range t.Fields {
		cid := lw.declareAsColumn(field)
		out = append(out, cid)
	}
	return out, nil
}

// declareAsColumn either returns an existing CId (e field is a bare column
// ref with no alias) or emits a pending Compute for a fresh CId (spec.md
// §4.4). Pending computes are collected in lw.pendingComputes and drained
// by takeComputes/popComputes in declaration order.
func (lw *Lowerer) declareAsColumn(e *pl.Expr) ids.CId {
	if e.Alias == "" {
		if ident, ok := e.Kind.(pl.Ident); ok && e.TargetID != nil {
			if cid, ok := lw.columnOf[*e.TargetID]; ok {
				_ = ident
				return cid
			}
		}
	}
	cid := lw.gen.CId.Next()
	if e.HasID() {
		lw.columnOf[e.AssignedID()] = cid
	}
	if name := columnName(e); name != "" {
		lw.names[cid] = name
	}
	lw.pendingComputes = append(lw.pendingComputes, Compute{
		ID:            cid,
		Expr:          lw.lowerScalar(e),
		IsAggregation: !e.NeedsWindow && isAggregateShaped(e),
	})
	return cid
}

func (lw *Lowerer) takeComputes(forCIds []ids.CId) []Transform {
	var out []Transform
	wanted := make(map[ids.CId]bool, len(forCIds))
	for _, c := range forCIds {
		wanted[c] = true
	}
	remaining := lw.pendingComputes[:0:0]
	for _, c := range lw.pendingComputes {
		if wanted[c.ID] {
			out = append(out, ComputeTransform{Compute: c})
		} else {
			remaining = append(remaining, c)
		}
	}
	lw.pendingComputes = remaining
	return out
}

func (lw *Lowerer) popComputes(forCIds []ids.CId) []Compute {
	wanted := make(map[ids.CId]bool, len(forCIds))
	for _, c := range forCIds {
		wanted[c] = true
	}
	var out []Compute
	var remaining []Compute
	for _, c := range lw.pendingComputes {
		if wanted[c.ID] {
			out = append(out, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	lw.pendingComputes = remaining
	return out
}

// columnName picks the name a declared column should surface under: its
// alias if assigned one, else a bare ident's own trailing path segment.
func columnName(e *pl.Expr) string {
	if e.Alias != "" {
		return e.Alias
	}
	if id, ok := e.Kind.(pl.Ident); ok && len(id.Path) > 0 {
		return id.Path[len(id.Path)-1]
	}
	return ""
}

func isAggregateShaped(e *pl.Expr) bool {
	op, ok := e.Kind.(pl.RqOperatorExpr)
	if !ok {
		return false
	}
	switch op.Name {
	case "std.sum", "std.count", "std.average", "std.min", "std.max", "std.stddev":
		return true
	default:
		return false
	}
}

// lowerScalar lowers a scalar (non-table-shaped) PL expr into an RQ Expr.
func (lw *Lowerer) lowerScalar(e *pl.Expr) *Expr {
	if e == nil {
		return nil
	}
	switch k := e.Kind.(type) {
	case pl.Ident:
		if e.TargetID != nil {
			if cid, ok := lw.columnOf[*e.TargetID]; ok {
				return &Expr{Kind: ColumnRef{ID: cid}}
			}
		}
		return &Expr{Kind: Operator{Name: "std.unresolved_ident"}}
	case pl.LiteralExpr:
		return &Expr{Kind: lowerLiteral(k.Value)}
	case pl.BinaryExpr:
		return &Expr{Kind: Operator{Name: binOpName(k.Op), Args: []*Expr{lw.lowerScalar(k.Left), lw.lowerScalar(k.Right)}}}
	case pl.UnaryExpr:
		return &Expr{Kind: Operator{Name: unOpName(k.Op), Args: []*Expr{lw.lowerScalar(k.Expr)}}}
	case pl.RqOperatorExpr:
		args := make([]*Expr, len(k.Args))
		for i, a := range k.Args {
			args[i] = lw.lowerScalar(a)
		}
		return &Expr{Kind: Operator{Name: k.Name, Args: args}}
	case pl.CaseExpr:
		branches := make([]CaseBranch, len(k.Cases))
		for i, c := range k.Cases {
			branches[i] = CaseBranch{Condition: lw.lowerScalar(c.Condition), Value: lw.lowerScalar(c.Value)}
		}
		return &Expr{Kind: Case{Branches: branches}}
	case pl.SStringExpr:
		return &Expr{Kind: SString{Parts: lw.lowerInterpolate(k.Parts)}}
	case pl.FStringExpr:
		return &Expr{Kind: FString{Parts: lw.lowerInterpolate(k.Parts)}}
	case pl.ParamExpr:
		return &Expr{Kind: Param{ID: k.ID}}
	default:
		return &Expr{Kind: Operator{Name: "std.unknown"}}
	}
}

func (lw *Lowerer) lowerInterpolate(parts []pl.InterpolateItem) []InterpolatePart {
	out := make([]InterpolatePart, len(parts))
	for i, p := range parts {
		if p.Kind == pl.InterpString {
			out[i] = InterpolatePart{Kind: PartString, Str: p.Str}
		} else {
			out[i] = InterpolatePart{Kind: PartExpr, Expr: lw.lowerScalar(p.Expr)}
		}
	}
	return out
}

func lowerLiteral(v pl.Literal) Literal {
	kindMap := map[pl.LiteralKind]LiteralKind{
		pl.LitNull: LitNull, pl.LitInteger: LitInt, pl.LitFloat: LitFloat,
		pl.LitBoolean: LitBool, pl.LitString: LitString, pl.LitDate: LitDate,
		pl.LitTime: LitTime, pl.LitTimestamp: LitTimestamp,
	}
	return Literal{Kind: kindMap[v.Kind], Int: v.Int, Float: v.Float, Bool: v.Bool, Str: v.Str}
}

func binOpName(op pl.BinOp) string {
	names := map[pl.BinOp]string{
		pl.OpAdd: "std.add", pl.OpSub: "std.sub", pl.OpMul: "std.mul", pl.OpDiv: "std.div",
		pl.OpIntDiv: "std.int_div", pl.OpMod: "std.mod", pl.OpEq: "std.eq", pl.OpNe: "std.ne",
		pl.OpLt: "std.lt", pl.OpLe: "std.le", pl.OpGt: "std.gt", pl.OpGe: "std.ge",
		pl.OpAnd: "std.and", pl.OpOr: "std.or", pl.OpCoalesce: "std.coalesce",
		pl.OpConcat: "std.concat", pl.OpRegexSearch: "std.regex_search",
	}
	return names[op]
}

func unOpName(op pl.UnOp) string {
	if op == pl.OpNot {
		return "std.not"
	}
	return "std.neg"
}

func (lw *Lowerer) lowerIntRange(r pl.RangeExpr) IntRange {
	toInt := func(e *pl.Expr) *int {
		if e == nil {
			return nil
		}
		lit, ok := e.Kind.(pl.LiteralExpr)
		if !ok {
			return nil
		}
		v := int(lit.Value.Int)
		return &v
	}
	return IntRange{Start: toInt(r.Start), End: toInt(r.End)}
}

func (lw *Lowerer) lowerSortKeys(by []pl.ColumnSort[*pl.Expr]) []pl.ColumnSort[ids.CId] {
	out := make([]pl.ColumnSort[ids.CId], 0, len(by))
	for _, s := range by {
		var cid ids.CId
		if s.Column != nil && s.Column.TargetID != nil {
			if c, ok := lw.columnOf[*s.Column.TargetID]; ok {
				cid = c
			}
		}
		out = append(out, pl.ColumnSort[ids.CId]{Direction: s.Direction, Column: cid})
	}
	return out
}

// pushSelect appends a final Select whose contents are derived from the
// frame's lineage (spec.md §4.4 "push_select"): named columns look up by
// expr_id, wildcards expand via the input mapping.
func (lw *Lowerer) pushSelect(root *pl.Expr, _ []Transform) ([]ids.CId, error) {
	if root.Lineage == nil {
		return nil, nil
	}
	var out []ids.CId
	for _, col := range root.Lineage.Columns {
		switch col.Kind {
		case pl.ColSingle:
			if cid, ok := lw.columnOf[col.TargetID]; ok {
				out = append(out, cid)
			}
		case pl.ColAll:
			for _, input := range root.Lineage.Inputs {
				if input.ID != col.InputID {
					continue
				}
				for name, cid := range lw.columnMapping[input.ID] {
					if !col.Except[name] {
						out = append(out, cid)
					}
				}
			}
		}
	}
	return out, nil
}

// partitionCIds resolves call's anchor-phase Partition exprs (populated by
// the resolver's pipeline simulation, spec.md §4.2.2) to the CIds they
// were bound to while lowering the input pipeline.
func (lw *Lowerer) partitionCIds(call *pl.TransformCall) []ids.CId {
	out := make([]ids.CId, 0, len(call.Partition))
	for _, p := range call.Partition {
		if p.TargetID != nil {
			if cid, ok := lw.columnOf[*p.TargetID]; ok {
				out = append(out, cid)
				continue
			}
		}
		if p.HasID() {
			if cid, ok := lw.columnOf[p.AssignedID()]; ok {
				out = append(out, cid)
			}
		}
	}
	return out
}

// soleFrom extracts the TableRef of a one-step `From`-only lowering (used
// when a join/append operand must reduce to a single relation reference).
func soleFrom(ts []Transform) (TableRef, bool) {
	if len(ts) == 1 {
		if f, ok := ts[0].(From); ok {
			return f.Table, true
		}
	}
	return TableRef{}, false
}
