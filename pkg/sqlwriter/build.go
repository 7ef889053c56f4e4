package sqlwriter

import (
	"fmt"
	"strings"

	"github.com/pql-lang/pqlc/pkg/anchor"
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/pq"
	"github.com/pql-lang/pqlc/pkg/rq"
	"github.com/pql-lang/pqlc/pkg/sql"
	"github.com/pql-lang/pqlc/pkg/target"
)

// Builder assembles a sql.Statement from a pq.SqlQuery, consulting an
// anchor.Context for table/column names and a target.Dialect for every
// dialect-sensitive rendering choice (spec.md §4.8 "SQL emitter").
type Builder struct {
	ctx     *anchor.Context
	dialect *target.Dialect

	// aliasOf resolves a RIId used within the relation currently being
	// built to the alias it was assigned (spec.md §4.5.2).
	aliasOf map[ids.RIId]string
}

// NewBuilder returns a Builder for ctx rendering against d.
func NewBuilder(ctx *anchor.Context, d *target.Dialect) *Builder {
	return &Builder{ctx: ctx, dialect: d, aliasOf: make(map[ids.RIId]string)}
}

// BuildQuery assembles the full statement: a WITH clause of every CTE plus
// the main relation's SELECT (spec.md §3 "SqlQuery").
func (b *Builder) BuildQuery(q *pq.SqlQuery) (*sql.SelectStmt, error) {
	stmt := &sql.SelectStmt{}

	if len(q.Ctes) > 0 {
		with := &sql.WithClause{}
		for _, cte := range q.Ctes {
			body, err := b.buildRelation(cte.Relation)
			if err != nil {
				return nil, fmt.Errorf("sqlwriter: cte %q: %w", cte.Name, err)
			}
			with.CTEs = append(with.CTEs, &sql.CTE{
				Name:   cte.Name,
				Select: &sql.SelectStmt{Body: body},
			})
			if containsRecursiveLoop(cte.Relation) {
				with.Recursive = true
			}
		}
		stmt.With = with
	}

	body, err := b.buildRelation(q.MainRelation)
	if err != nil {
		return nil, fmt.Errorf("sqlwriter: main relation: %w", err)
	}
	stmt.Body = body
	return stmt, nil
}

// buildRelationExpr renders a RelationExpr (either a reference to an
// already-anchored table, or an inlined subquery) as a table reference
// suitable for a set-operation operand.
func (b *Builder) buildRelationExpr(r pq.RelationExpr) (*sql.SelectBody, error) {
	switch k := r.Kind.(type) {
	case pq.RefExpr:
		decl := b.ctx.TableDecls[k.Table]
		name := ""
		if decl != nil {
			name = decl.Name
		}
		core := &sql.SelectCore{
			Columns: []sql.SelectItem{{Star: true}},
			From:    &sql.FromClause{Source: &sql.TableName{Name: name}},
		}
		return &sql.SelectBody{Left: core}, nil
	case pq.SubQueryExpr:
		return b.buildRelation(k.Relation)
	default:
		return nil, fmt.Errorf("sqlwriter: unknown relation-expr kind %T", r.Kind)
	}
}

func containsRecursiveLoop(rel *pq.SqlRelation) bool {
	for _, t := range rel.Transforms {
		if pt, ok := t.(pq.Passthrough); ok {
			if _, ok := pt.Transform.(rq.Loop); ok {
				return true
			}
		}
	}
	return false
}

// buildRelation renders one atomic pipeline into a SelectBody. It folds
// the transform sequence left to right, accumulating FROM/JOIN sources,
// the active WHERE/HAVING predicate, GROUP BY keys, and ORDER BY/LIMIT
// into the current SelectCore — expanding the trailing Select into the
// SELECT list — and splices in a set-operation chain whenever a
// Union/Except/Intersect transform appears, per spec.md §4.6.
func (b *Builder) buildRelation(rel *pq.SqlRelation) (*sql.SelectBody, error) {
	core := &sql.SelectCore{}
	exprOf := make(map[ids.CId]sql.Expr)
	nameOf := make(map[ids.CId]string)
	var pastAggregate bool
	var result *sql.SelectBody // set once a set-op transform closes off `core`

	finishCore := func() *sql.SelectBody {
		if len(core.Columns) == 0 {
			core.Columns = []sql.SelectItem{{Star: true}}
		}
		return &sql.SelectBody{Left: core}
	}

	// A pipeline carries at most one trailing set operation (detectSetOps
	// never produces chained Union/Except/Intersect within one atomic
	// pipeline); applying a second is a no-op on the already-closed result.
	appendSetOp := func(op sql.SetOpType, set pq.SetOp) error {
		if result != nil {
			return nil
		}
		left := finishCore()
		bottom, err := b.buildRelationExpr(set.Bottom)
		if err != nil {
			return err
		}
		left.Op, left.All, left.Right = op, !set.Distinct, bottom
		result = left
		return nil
	}

	for _, t := range rel.Transforms {
		switch k := t.(type) {
		case pq.FromInstance:
			ri := b.ctx.RelationInstances[k.Instance]
			if ri == nil {
				return nil, fmt.Errorf("unknown relation instance %v", k.Instance)
			}
			b.bindTableRefColumns(ri.TableRef, exprOf, nameOf, ri.Alias)
			core.From = &sql.FromClause{Source: b.tableRefNode(ri)}

		case pq.Passthrough:
			if err := b.applyTransform(k.Transform, core, exprOf, nameOf, &pastAggregate); err != nil {
				return nil, err
			}

		case pq.Distinct:
			core.Distinct = true

		case pq.DistinctOn:
			if b.dialect.SupportsDistinctOn {
				core.DistinctOn = cidsToExprs(k.Partition, exprOf)
			} else {
				core.Distinct = true
			}

		case pq.Union:
			if err := appendSetOp(sql.SetOpUnion, k.SetOp); err != nil {
				return nil, err
			}
		case pq.Except:
			if err := appendSetOp(sql.SetOpExcept, k.SetOp); err != nil {
				return nil, err
			}
		case pq.Intersect:
			if err := appendSetOp(sql.SetOpIntersect, k.SetOp); err != nil {
				return nil, err
			}
		}
	}

	if result != nil {
		return result, nil
	}
	return finishCore(), nil
}

func (b *Builder) bindTableRefColumns(ref rq.TableRef, exprOf map[ids.CId]sql.Expr, nameOf map[ids.CId]string, alias string) {
	table := alias
	if table == "" {
		table = ref.Name
	}
	for _, c := range ref.Columns {
		if c.Column.Kind == rq.RelColWildcard {
			continue
		}
		exprOf[c.ID] = &sql.ColumnRef{Table: table, Column: c.Column.Name}
		nameOf[c.ID] = c.Column.Name
	}
}

func (b *Builder) tableRefNode(ri *anchor.RelationInstance) sql.TableRef {
	decl := b.ctx.TableDecls[ri.TableRef.Source]
	name := ""
	if decl != nil {
		name = decl.Name
	}
	return &sql.TableName{Name: name, Alias: ri.Alias}
}

func (b *Builder) applyTransform(t rq.Transform, core *sql.SelectCore, exprOf map[ids.CId]sql.Expr, nameOf map[ids.CId]string, pastAggregate *bool) error {
	switch k := t.(type) {
	case rq.ComputeTransform:
		e := b.buildExpr(k.Compute.Expr, exprOf)
		if k.Compute.Window != nil {
			e = b.applyWindow(e, k.Compute.Window, exprOf)
		}
		name := b.ctx.ColumnNames[k.Compute.ID]
		if name == "" {
			name = fmt.Sprintf("_expr_%d", k.Compute.ID)
		}
		exprOf[k.Compute.ID] = &sql.ColumnRef{Column: name}
		nameOf[k.Compute.ID] = name
		core.Columns = append(core.Columns, sql.SelectItem{Expr: e, Alias: name})

	case rq.Filter:
		e := b.buildExpr(k.Predicate, exprOf)
		if *pastAggregate {
			core.Having = andExpr(core.Having, e)
		} else {
			core.Where = andExpr(core.Where, e)
		}

	case rq.Aggregate:
		for _, p := range k.Partition {
			core.GroupBy = append(core.GroupBy, exprOf[p])
		}
		for _, c := range k.Compute {
			e := b.buildExpr(c.Expr, exprOf)
			name := b.ctx.ColumnNames[c.ID]
			if name == "" {
				name = fmt.Sprintf("_agg_%d", c.ID)
			}
			exprOf[c.ID] = &sql.ColumnRef{Column: name}
			nameOf[c.ID] = name
			core.Columns = append(core.Columns, sql.SelectItem{Expr: e, Alias: name})
		}
		*pastAggregate = true

	case rq.Sort:
		core.OrderBy = nil
		for _, s := range k.By {
			core.OrderBy = append(core.OrderBy, sql.OrderByItem{Expr: exprOf[s.Column], Desc: s.Direction == pl.Desc})
		}

	case rq.Take:
		if k.Range.Start != nil && *k.Range.Start > 1 {
			core.Offset = intLiteral(*k.Range.Start - 1)
		}
		if k.Range.End != nil {
			limit := *k.Range.End
			if k.Range.Start != nil {
				limit = *k.Range.End - *k.Range.Start + 1
			}
			if b.dialect.UseTop() {
				core.Top = intLiteral(limit)
			} else {
				core.Limit = intLiteral(limit)
			}
		}

	case rq.Join:
		side := sql.JoinInner
		switch k.Side {
		case pl.JoinLeft:
			side = sql.JoinLeft
		case pl.JoinRight:
			side = sql.JoinRight
		case pl.JoinFull:
			side = sql.JoinFull
		}
		b.bindTableRefColumns(k.With, exprOf, nameOf, k.With.Name)
		core.From.Joins = append(core.From.Joins, &sql.Join{
			Type:      side,
			Right:     &sql.TableName{Name: k.With.Name, Alias: k.With.Name},
			Condition: b.buildExpr(k.Filter, exprOf),
		})

	case rq.Select:
		core.Columns = core.Columns[:0]
		for _, cid := range k.Columns {
			e, ok := exprOf[cid]
			if !ok {
				e = &sql.ColumnRef{Column: nameOf[cid]}
			}
			core.Columns = append(core.Columns, sql.SelectItem{Expr: e})
		}

	case rq.Unique:
		core.Distinct = true
	}
	return nil
}

func (b *Builder) applyWindow(e sql.Expr, w *rq.Window, exprOf map[ids.CId]sql.Expr) sql.Expr {
	fc, ok := e.(*sql.FuncCall)
	if !ok {
		return e
	}
	spec := &sql.WindowSpec{}
	for _, p := range w.Partition {
		spec.PartitionBy = append(spec.PartitionBy, exprOf[p])
	}
	for _, s := range w.Sort {
		spec.OrderBy = append(spec.OrderBy, sql.OrderByItem{Expr: exprOf[s.Column], Desc: s.Direction == pl.Desc})
	}
	if w.Frame != nil {
		ft := sql.FrameRows
		if w.Frame.Kind == pl.WindowRange {
			ft = sql.FrameRange
		}
		spec.Frame = &sql.FrameSpec{
			Type:  ft,
			Start: buildFrameBound(w.Frame.Start),
			End:   buildFrameBound(w.Frame.End),
		}
	}
	fc.Window = spec
	return fc
}

func buildFrameBound(b pl.WindowBound) *sql.FrameBound {
	if b.IsUnbounded() {
		return &sql.FrameBound{Type: sql.FrameUnboundedPreceding}
	}
	v := *b.Value
	if v < 0 {
		return &sql.FrameBound{Type: sql.FrameExprPreceding, Offset: intLiteral(-v)}
	}
	if v == 0 {
		return &sql.FrameBound{Type: sql.FrameCurrentRow}
	}
	return &sql.FrameBound{Type: sql.FrameExprFollowing, Offset: intLiteral(v)}
}

func andExpr(existing sql.Expr, next sql.Expr) sql.Expr {
	if existing == nil {
		return next
	}
	return &sql.BinaryExpr{Left: existing, Op: "AND", Right: next}
}

func cidsToExprs(cids []ids.CId, exprOf map[ids.CId]sql.Expr) []sql.Expr {
	out := make([]sql.Expr, len(cids))
	for i, c := range cids {
		out[i] = exprOf[c]
	}
	return out
}

// buildExpr lowers an rq.Expr into a sql.Expr, resolving ColumnRef through
// exprOf (the in-scope CId -> column-reference map built while folding the
// pipeline).
func (b *Builder) buildExpr(e *rq.Expr, exprOf map[ids.CId]sql.Expr) sql.Expr {
	if e == nil {
		return nil
	}
	switch k := e.Kind.(type) {
	case rq.ColumnRef:
		if ref, ok := exprOf[k.ID]; ok {
			return ref
		}
		return &sql.ColumnRef{Column: b.ctx.ColumnNames[k.ID]}
	case rq.Literal:
		return buildLiteral(k)
	case rq.Operator:
		return b.buildOperator(k, exprOf)
	case rq.Case:
		c := &sql.CaseExpr{}
		for _, br := range k.Branches {
			c.Whens = append(c.Whens, sql.WhenClause{
				Condition: b.buildExpr(br.Condition, exprOf),
				Result:    b.buildExpr(br.Value, exprOf),
			})
		}
		return c
	case rq.SString:
		return b.buildInterpolate(k.Parts, exprOf)
	case rq.FString:
		return b.buildConcat(k.Parts, exprOf)
	case rq.Param:
		return &sql.Raw{Text: "$" + k.ID}
	default:
		return &sql.Raw{Text: "NULL"}
	}
}

func buildLiteral(v rq.Literal) sql.Expr {
	switch v.Kind {
	case rq.LitNull:
		return &sql.Literal{Type: sql.LiteralNull}
	case rq.LitString, rq.LitDate, rq.LitTime, rq.LitTimestamp:
		return &sql.Literal{Type: sql.LiteralString, Value: v.Str}
	case rq.LitBool:
		val := "FALSE"
		if v.Bool {
			val = "TRUE"
		}
		return &sql.Literal{Type: sql.LiteralBool, Value: val}
	case rq.LitFloat:
		return &sql.Literal{Type: sql.LiteralNumber, Value: fmt.Sprintf("%g", v.Float)}
	default:
		return &sql.Literal{Type: sql.LiteralNumber, Value: fmt.Sprintf("%d", v.Int)}
	}
}

var binaryOps = map[string]string{
	"std.add": "+", "std.sub": "-", "std.mul": "*", "std.div": "/",
	"std.int_div": "/", "std.mod": "%", "std.eq": "=", "std.ne": "<>",
	"std.lt": "<", "std.le": "<=", "std.gt": ">", "std.ge": ">=",
	"std.and": "AND", "std.or": "OR", "std.concat": "||",
}

var aggregateFuncs = map[string]string{
	"std.sum": "SUM", "std.count": "COUNT", "std.average": "AVG",
	"std.min": "MIN", "std.max": "MAX", "std.stddev": "STDDEV",
}

func (b *Builder) buildOperator(op rq.Operator, exprOf map[ids.CId]sql.Expr) sql.Expr {
	if sym, ok := binaryOps[op.Name]; ok && len(op.Args) == 2 {
		return &sql.BinaryExpr{Left: b.buildExpr(op.Args[0], exprOf), Op: sym, Right: b.buildExpr(op.Args[1], exprOf)}
	}
	if op.Name == "std.neg" && len(op.Args) == 1 {
		return &sql.UnaryExpr{Op: "-", Expr: b.buildExpr(op.Args[0], exprOf)}
	}
	if op.Name == "std.not" && len(op.Args) == 1 {
		return &sql.UnaryExpr{Op: "NOT", Expr: b.buildExpr(op.Args[0], exprOf)}
	}
	if op.Name == "std.coalesce" && len(op.Args) == 2 {
		return &sql.FuncCall{Name: "COALESCE", Args: []sql.Expr{b.buildExpr(op.Args[0], exprOf), b.buildExpr(op.Args[1], exprOf)}}
	}
	if op.Name == "std.array_in" && len(op.Args) == 2 {
		values := b.buildArrayLiteral(op.Args[1], exprOf)
		return &sql.InExpr{Expr: b.buildExpr(op.Args[0], exprOf), Values: values}
	}
	if fn, ok := aggregateFuncs[op.Name]; ok {
		args := make([]sql.Expr, len(op.Args))
		for i, a := range op.Args {
			args[i] = b.buildExpr(a, exprOf)
		}
		return &sql.FuncCall{Name: fn, Args: args}
	}
	args := make([]sql.Expr, len(op.Args))
	for i, a := range op.Args {
		args[i] = b.buildExpr(a, exprOf)
	}
	return &sql.FuncCall{Name: op.Name, Args: args}
}

func (b *Builder) buildArrayLiteral(e *rq.Expr, exprOf map[ids.CId]sql.Expr) []sql.Expr {
	op, ok := e.Kind.(rq.Operator)
	if !ok {
		return nil
	}
	out := make([]sql.Expr, len(op.Args))
	for i, a := range op.Args {
		out[i] = b.buildExpr(a, exprOf)
	}
	return out
}

// buildInterpolate renders an SString's parts into one Raw text blob,
// printing embedded expressions inline so the result is passed through to
// the dialect verbatim (spec.md §4.8, s-string escape hatch).
func (b *Builder) buildInterpolate(parts []rq.InterpolatePart, exprOf map[ids.CId]sql.Expr) sql.Expr {
	var text strings.Builder
	for _, p := range parts {
		if p.Kind == rq.PartString {
			text.WriteString(p.Str)
			continue
		}
		inline := NewPrinter(b.dialect)
		inline.printExpr(b.buildExpr(p.Expr, exprOf))
		text.WriteString(inline.String())
	}
	return &sql.Raw{Text: text.String()}
}

func (b *Builder) buildConcat(parts []rq.InterpolatePart, exprOf map[ids.CId]sql.Expr) sql.Expr {
	var result sql.Expr
	for _, p := range parts {
		var next sql.Expr
		if p.Kind == rq.PartString {
			next = &sql.Literal{Type: sql.LiteralString, Value: p.Str}
		} else {
			next = b.buildExpr(p.Expr, exprOf)
		}
		if result == nil {
			result = next
		} else {
			result = &sql.BinaryExpr{Left: result, Op: "||", Right: next}
		}
	}
	if result == nil {
		return &sql.Literal{Type: sql.LiteralString, Value: ""}
	}
	return result
}
