package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pql-lang/pqlc/pkg/perrors"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// dispatchSpecial implements the fixed table of compiler-internal
// functions (spec.md §4.2.1): each is dispatched by name once the callee's
// body has reduced to Internal(name).
func (r *Resolver) dispatchSpecial(e *pl.Expr, name string, applied *pl.Func) (*pl.Expr, error) {
	switch name {
	case "from":
		return positional(applied, 0), nil
	case "select":
		return r.specSelect(e, applied)
	case "filter":
		return r.specFilter(e, applied)
	case "derive":
		return r.specDerive(e, applied)
	case "aggregate":
		return r.specAggregate(e, applied)
	case "sort":
		return r.specSort(e, applied)
	case "take":
		return r.specTake(e, applied)
	case "join":
		return r.specJoin(e, applied)
	case "group":
		return r.specGroup(e, applied)
	case "window":
		return r.specWindow(e, applied)
	case "append":
		return r.specAppend(e, applied)
	case "loop":
		return r.specLoop(e, applied)
	case "in":
		return r.specIn(e, applied)
	case "tuple_every":
		return r.specTupleEvery(e, applied)
	case "tuple_map":
		return r.specTupleMap(e, applied)
	case "tuple_zip":
		return r.specTupleZip(e, applied)
	case "from_text":
		return r.specFromText(e, applied)
	case "prql_version":
		return pl.New(pl.LiteralExpr{Value: pl.String("0.1.0")}), nil
	default:
		return nil, perrors.New(perrors.Unexpected{Found: "internal function " + name}).WithSpan(e.Span)
	}
}

// coerceIntoTuple implements spec.md §4.2.1 "Argument coercion": wraps a
// bare expr as a single-field tuple unless it is already tuple-typed.
func coerceIntoTuple(e *pl.Expr) (*pl.Expr, error) {
	if e == nil {
		return nil, nil
	}
	if _, ok := e.Kind.(pl.TupleExpr); ok {
		if e.Alias != "" {
			return nil, perrors.New(perrors.Unexpected{Found: "alias on a tuple argument"}).
				WithHint("move the alias inside the tuple").WithSpan(e.Span)
		}
		return e, nil
	}
	return pl.New(pl.TupleExpr{Fields: []*pl.Expr{e}}), nil
}

func tupleFields(e *pl.Expr) []*pl.Expr {
	if e == nil {
		return nil
	}
	if t, ok := e.Kind.(pl.TupleExpr); ok {
		return t.Fields
	}
	return []*pl.Expr{e}
}

// newTransformCall builds the TransformCallExpr wrapper used for every
// special function that threads a table through (spec.md §3
// "TransformCall").
func newTransformCall(kind pl.TransformKind, input *pl.Expr) *pl.Expr {
	call := &pl.TransformCall{Kind: kind, Input: input}
	e := pl.New(pl.TransformCallExpr{Call: call})
	if input != nil {
		e.Lineage = input.Lineage.Clone()
		ty := pl.Ty{}
		if input.Ty != nil {
			ty = *input.Ty
		}
		e.Ty = &ty
	}
	return e
}

// extendLineage appends the output columns an assigns tuple produces to
// the previous lineage (spec.md §4.2.1 "derive": "Output lineage = input
// ⊕ assigns").
func extendLineage(prev *pl.Lineage, assigns []*pl.Expr, replace bool) *pl.Lineage {
	out := prev.Clone()
	if out == nil {
		out = &pl.Lineage{}
	}
	out.PrevColumns = out.Columns
	if replace {
		out.Columns = nil
	}
	for _, f := range assigns {
		name := f.Alias
		if name == "" {
			if id, ok := f.Kind.(pl.Ident); ok && len(id.Path) > 0 {
				name = id.Path[len(id.Path)-1]
			}
		}
		id := 0
		if f.HasID() {
			id = f.AssignedID()
		}
		out.Columns = append(out.Columns, pl.LineageColumn{Kind: pl.ColSingle, Name: name, TargetID: id})
	}
	return out
}

func (r *Resolver) specSelect(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	assigns, err := coerceIntoTuple(positional(applied, 0))
	if err != nil {
		return nil, err
	}
	input := positional(applied, 1)
	out := newTransformCall(pl.SelectKind{Assigns: assigns}, input)
	out.Lineage = extendLineage(input.Lineage, tupleFields(assigns), true)
	return out, nil
}

func (r *Resolver) specFilter(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	pred := positional(applied, 0)
	if pred.Ty == nil || !pred.Ty.IsBool() {
		return nil, perrors.New(perrors.Expected{Who: "filter", Expected: "bool", Found: "other"}).WithSpan(pred.Span)
	}
	input := positional(applied, 1)
	return newTransformCall(pl.FilterKind{Filter: pred}, input), nil
}

func (r *Resolver) specDerive(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	assigns, err := coerceIntoTuple(positional(applied, 0))
	if err != nil {
		return nil, err
	}
	input := positional(applied, 1)
	out := newTransformCall(pl.DeriveKind{Assigns: assigns}, input)
	out.Lineage = extendLineage(input.Lineage, tupleFields(assigns), false)
	return out, nil
}

func (r *Resolver) specAggregate(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	assigns, err := coerceIntoTuple(positional(applied, 0))
	if err != nil {
		return nil, err
	}
	input := positional(applied, 1)
	out := newTransformCall(pl.AggregateKind{Assigns: assigns}, input)
	out.Lineage = extendLineage(input.Lineage, tupleFields(assigns), true)
	return out, nil
}

func (r *Resolver) specSort(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	by := tupleFields(positional(applied, 0))
	keys := make([]pl.ColumnSort[*pl.Expr], len(by))
	for i, f := range by {
		dir := pl.Asc
		col := f
		if u, ok := f.Kind.(pl.UnaryExpr); ok && u.Op == pl.OpNeg {
			dir = pl.Desc
			col = u.Expr
		}
		keys[i] = pl.ColumnSort[*pl.Expr]{Direction: dir, Column: col}
	}
	input := positional(applied, 1)
	return newTransformCall(pl.SortKind{By: keys}, input), nil
}

func (r *Resolver) specTake(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	n := positional(applied, 0)
	input := positional(applied, 1)
	var rng pl.RangeExpr
	switch k := n.Kind.(type) {
	case pl.RangeExpr:
		rng = k
	case pl.LiteralExpr:
		rng = pl.RangeExpr{End: n}
		_ = k
	default:
		return nil, perrors.New(perrors.Expected{Who: "take", Expected: "int or range", Found: fmt.Sprintf("%T", k)}).WithSpan(n.Span)
	}
	return newTransformCall(pl.TakeKind{Range: rng}, input), nil
}

func (r *Resolver) specJoin(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	sideExpr := positional(applied, 0)
	with := positional(applied, 1)
	filter := positional(applied, 2)
	input := positional(applied, 3)
	side, err := parseJoinSide(sideExpr)
	if err != nil {
		return nil, err
	}
	out := newTransformCall(pl.JoinKind{Side: side, With: with, Filter: filter}, input)
	merged := input.Lineage.Clone()
	if merged != nil && with.Lineage != nil {
		merged.Columns = append(append([]pl.LineageColumn(nil), merged.Columns...), with.Lineage.Columns...)
	}
	out.Lineage = merged
	return out, nil
}

func parseJoinSide(e *pl.Expr) (pl.JoinSide, error) {
	id, ok := e.Kind.(pl.Ident)
	if !ok || len(id.Path) == 0 {
		return 0, perrors.New(perrors.Expected{Who: "join", Expected: "inner, left, right, or full", Found: "other"}).WithSpan(e.Span)
	}
	switch id.Path[len(id.Path)-1] {
	case "inner":
		return pl.JoinInner, nil
	case "left":
		return pl.JoinLeft, nil
	case "right":
		return pl.JoinRight, nil
	case "full":
		return pl.JoinFull, nil
	default:
		return 0, perrors.New(perrors.Expected{Who: "join", Expected: "inner, left, right, or full", Found: id.Path[len(id.Path)-1]}).WithSpan(e.Span)
	}
}

// specGroup implements spec.md §4.2.2's pipeline simulation: fold the
// sub-pipeline against a dummy expression standing in for one partition,
// then wrap as a GroupKind carrying both the grouping keys and the
// resulting one-parameter Func.
func (r *Resolver) specGroup(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	by := positional(applied, 0)
	pipeline := positional(applied, 1)
	input := positional(applied, 2)

	simulated, err := r.simulatePipeline(input, pipeline)
	if err != nil {
		return nil, err
	}
	out := newTransformCall(pl.GroupKind{By: by, Pipeline: simulated}, input)
	if simulated.Lineage != nil {
		out.Lineage = extendLineage(input.Lineage, tupleFields(by), false)
		out.Lineage.Columns = append(out.Lineage.Columns, simulated.Lineage.Columns...)
	}
	return out, nil
}

// specWindow implements the frame-selection rules of spec.md §4.2.1
// "window".
func (r *Resolver) specWindow(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	rows := positional(applied, 0)
	rangeArg := positional(applied, 1)
	expandingArg := positional(applied, 2)
	rollingArg := positional(applied, 3)
	pipeline := positional(applied, 4)
	input := positional(applied, 5)

	expanding := literalBool(expandingArg)
	rolling := int(literalInt(rollingArg))

	var frame pl.Frame
	switch {
	case expanding:
		frame = pl.Frame{Kind: pl.WindowRows, Start: pl.Unbounded(), End: pl.Bound(0)}
	case rolling > 0:
		frame = pl.Frame{Kind: pl.WindowRows, Start: pl.Bound(-rolling + 1), End: pl.Bound(0)}
	case rows != nil:
		frame = rangeExprToFrame(pl.WindowRows, rows)
	case rangeArg != nil:
		frame = rangeExprToFrame(pl.WindowRange, rangeArg)
	default:
		frame = pl.Frame{Kind: pl.WindowRows, Start: pl.Unbounded(), End: pl.Unbounded()}
	}

	simulated, err := r.simulatePipeline(input, pipeline)
	if err != nil {
		return nil, err
	}
	out := newTransformCall(pl.WindowKind_{
		Rows:      asRangeExpr(rows),
		Range:     asRangeExpr(rangeArg),
		Expanding: expanding,
		Rolling:   rolling,
		Pipeline:  simulated,
	}, input)
	out.Ty = input.Ty
	_ = frame
	return out, nil
}

func asRangeExpr(e *pl.Expr) *pl.RangeExpr {
	if e == nil {
		return nil
	}
	if rg, ok := e.Kind.(pl.RangeExpr); ok {
		return &rg
	}
	return nil
}

func rangeExprToFrame(kind pl.WindowKind, e *pl.Expr) pl.Frame {
	rg, ok := e.Kind.(pl.RangeExpr)
	if !ok {
		return pl.Frame{Kind: kind, Start: pl.Unbounded(), End: pl.Unbounded()}
	}
	start := pl.Unbounded()
	end := pl.Unbounded()
	if rg.Start != nil {
		start = pl.Bound(int(literalInt(rg.Start)))
	}
	if rg.End != nil {
		end = pl.Bound(int(literalInt(rg.End)))
	}
	return pl.Frame{Kind: kind, Start: start, End: end}
}

func literalBool(e *pl.Expr) bool {
	if e == nil {
		return false
	}
	lit, ok := e.Kind.(pl.LiteralExpr)
	if !ok {
		return false
	}
	v, _ := lit.Value.AsBoolean()
	return v
}

func literalInt(e *pl.Expr) int64 {
	if e == nil {
		return 0
	}
	lit, ok := e.Kind.(pl.LiteralExpr)
	if !ok {
		return 0
	}
	v, _ := lit.Value.AsInteger()
	return v
}

// simulatePipeline implements spec.md §4.2.2: allocate a fresh id for a
// dummy table-shaped expr carrying input's type/lineage, fold
// pipeline(_tbl) as an ordinary call, then pop the scratch parameter.
func (r *Resolver) simulatePipeline(input *pl.Expr, pipeline *pl.Expr) (*pl.Expr, error) {
	if pipeline == nil {
		return nil, nil
	}
	id := r.ids.next_()
	dummy := &pl.Expr{Kind: pl.Ident{Path: []string{fmt.Sprintf("_p%d", id)}}}
	dummy.ID = &id
	dummy.Ty = input.Ty
	dummy.Lineage = input.Lineage.Clone()

	call := pl.New(pl.FuncCall{Name: pipeline, Args: []*pl.Expr{dummy}})
	return r.Fold(call)
}

func (r *Resolver) specAppend(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	bottom := positional(applied, 0)
	top := positional(applied, 1)
	if bottom.Lineage != nil && top.Lineage != nil && len(bottom.Lineage.Columns) != len(top.Lineage.Columns) {
		return nil, perrors.New(perrors.Expected{Who: "append", Expected: fmt.Sprintf("%d columns", len(top.Lineage.Columns)), Found: fmt.Sprintf("%d", len(bottom.Lineage.Columns))}).WithSpan(e.Span)
	}
	return newTransformCall(pl.AppendKind{Bottom: bottom}, top), nil
}

func (r *Resolver) specLoop(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	pipeline := positional(applied, 0)
	input := positional(applied, 1)
	simulated, err := r.simulatePipeline(input, pipeline)
	if err != nil {
		return nil, err
	}
	return newTransformCall(pl.LoopKind{Pipeline: simulated}, input), nil
}

func (r *Resolver) specIn(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	pattern := positional(applied, 0)
	value := positional(applied, 1)
	if rg, ok := pattern.Kind.(pl.RangeExpr); ok {
		var lower, upper *pl.Expr
		if rg.Start != nil {
			lower = pl.New(pl.BinaryExpr{Op: pl.OpGe, Left: value, Right: rg.Start})
		}
		if rg.End != nil {
			upper = pl.New(pl.BinaryExpr{Op: pl.OpLe, Left: value, Right: rg.End})
		}
		switch {
		case lower != nil && upper != nil:
			return r.Fold(pl.New(pl.BinaryExpr{Op: pl.OpAnd, Left: lower, Right: upper}))
		case lower != nil:
			return r.Fold(lower)
		case upper != nil:
			return r.Fold(upper)
		default:
			return pl.New(pl.LiteralExpr{Value: pl.Bool(true)}), nil
		}
	}
	out := pl.New(pl.RqOperatorExpr{Name: "std.array_in", Args: []*pl.Expr{value, pattern}})
	r.assignID(out)
	ty := pl.TyBool()
	out.Ty = &ty
	return out, nil
}

func (r *Resolver) specTupleEvery(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	fields := tupleFields(positional(applied, 0))
	if len(fields) == 0 {
		return pl.New(pl.LiteralExpr{Value: pl.Bool(true)}), nil
	}
	acc := fields[0]
	for _, f := range fields[1:] {
		acc = pl.New(pl.BinaryExpr{Op: pl.OpAnd, Left: acc, Right: f})
	}
	return r.Fold(acc)
}

func (r *Resolver) specTupleMap(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	f := positional(applied, 0)
	fields := tupleFields(positional(applied, 1))
	out := make([]*pl.Expr, len(fields))
	for i, field := range fields {
		call := pl.New(pl.FuncCall{Name: f, Args: []*pl.Expr{field}})
		folded, err := r.Fold(call)
		if err != nil {
			return nil, err
		}
		out[i] = folded
	}
	return pl.New(pl.TupleExpr{Fields: out}), nil
}

func (r *Resolver) specTupleZip(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	a := tupleFields(positional(applied, 0))
	b := tupleFields(positional(applied, 1))
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]*pl.Expr, n)
	for i := 0; i < n; i++ {
		out[i] = pl.New(pl.TupleExpr{Fields: []*pl.Expr{a[i], b[i]}})
	}
	return pl.New(pl.TupleExpr{Fields: out}), nil
}

// specFromText parses a compile-time CSV/JSON literal into an array-of-
// tuples value (spec.md §4.2.1 "from_text"). Only CSV's shape (a header
// row plus comma-separated data rows) is parsed; the `json` format is
// recognized but rejected with an error, and no JSON text is parsed.
func (r *Resolver) specFromText(e *pl.Expr, applied *pl.Func) (*pl.Expr, error) {
	formatExpr := positional(applied, 0)
	textExpr := positional(applied, 1)
	id, ok := formatExpr.Kind.(pl.Ident)
	if !ok || len(id.Path) == 0 {
		return nil, perrors.New(perrors.Expected{Who: "from_text", Expected: "csv or json", Found: "other"}).WithSpan(formatExpr.Span)
	}
	format := id.Path[len(id.Path)-1]
	lit, ok := textExpr.Kind.(pl.LiteralExpr)
	if !ok || lit.Value.Kind != pl.LitString {
		return nil, perrors.New(perrors.Expected{Who: "from_text", Expected: "a string literal", Found: "other"}).WithSpan(textExpr.Span)
	}
	switch format {
	case "csv":
		return r.parseCsvLiteral(lit.Value.Str)
	case "json":
		return nil, perrors.New(perrors.Simple{Message: "from_text(json, ...) is not supported at compile time"}).WithSpan(e.Span)
	default:
		return nil, perrors.New(perrors.Expected{Who: "from_text", Expected: "csv or json", Found: format}).WithSpan(formatExpr.Span)
	}
}

// parseCsvLiteral turns a CSV-formatted string literal into an ArrayExpr of
// TupleExprs, one per data row, columns named from the header row.
func (r *Resolver) parseCsvLiteral(text string) (*pl.Expr, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return pl.New(pl.ArrayExpr{}), nil
	}
	header := strings.Split(lines[0], ",")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]*pl.Expr, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, ",")
		fields := make([]*pl.Expr, 0, len(header))
		for i, name := range header {
			var cell string
			if i < len(cells) {
				cell = strings.TrimSpace(cells[i])
			}
			fields = append(fields, pl.New(pl.LiteralExpr{Value: csvCellLiteral(cell)}).WithAlias(name))
		}
		row := pl.New(pl.TupleExpr{Fields: fields})
		r.assignID(row)
		rows = append(rows, row)
	}
	out := pl.New(pl.ArrayExpr{Elements: rows})
	r.assignID(out)
	return out, nil
}

// csvCellLiteral guesses a cell's literal kind the way a CSV reader with no
// schema would: integer, then float, then fall back to text.
func csvCellLiteral(cell string) pl.Literal {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return pl.Int(n)
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return pl.Float(f)
	}
	return pl.String(cell)
}
