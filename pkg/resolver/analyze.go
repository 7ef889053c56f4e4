package resolver

import "github.com/pql-lang/pqlc/pkg/pl"

// analyzeBinary, analyzeUnary, and analyzeCase implement the static
// analyzer (spec.md §4.3 "C5"): a pure rewriter applied eagerly as each
// binary, unary, or case expression is folded. They preserve e's ID, Ty,
// Span, and Alias when they fold to a literal, since downstream lowering
// still expects every resolved Expr to carry an id.

func analyzeBinary(e *pl.Expr) (*pl.Expr, error) {
	b, ok := e.Kind.(pl.BinaryExpr)
	if !ok {
		return e, nil
	}
	leftLit, leftOk := b.Left.Kind.(pl.LiteralExpr)
	rightLit, rightOk := b.Right.Kind.(pl.LiteralExpr)

	switch b.Op {
	case pl.OpCoalesce:
		if leftOk && leftLit.Value.IsNull() {
			return b.Right, nil
		}
		if rightOk && rightLit.Value.IsNull() {
			return b.Left, nil
		}
		return e, nil
	case pl.OpAnd, pl.OpOr:
		if leftOk && rightOk {
			lv, lok := leftLit.Value.AsBoolean()
			rv, rok := rightLit.Value.AsBoolean()
			if lok && rok {
				result := lv && rv
				if b.Op == pl.OpOr {
					result = lv || rv
				}
				return asLiteral(e, pl.Bool(result)), nil
			}
		}
		return e, nil
	}

	if !leftOk || !rightOk {
		return e, nil
	}

	switch b.Op {
	case pl.OpEq, pl.OpNe, pl.OpLt, pl.OpLe, pl.OpGt, pl.OpGe:
		if !leftLit.Value.SameKind(rightLit.Value) {
			return e, nil
		}
		result, ok := foldComparison(b.Op, leftLit.Value, rightLit.Value)
		if !ok {
			return e, nil
		}
		return asLiteral(e, pl.Bool(result)), nil
	case pl.OpIntDiv:
		return e, nil
	case pl.OpAdd, pl.OpSub, pl.OpMul, pl.OpDiv, pl.OpMod:
		lit, ok := foldArithmetic(b.Op, leftLit.Value, rightLit.Value)
		if !ok {
			return e, nil
		}
		return asLiteral(e, lit), nil
	default:
		return e, nil
	}
}

func analyzeUnary(e *pl.Expr) (*pl.Expr, error) {
	u, ok := e.Kind.(pl.UnaryExpr)
	if !ok {
		return e, nil
	}
	lit, ok := u.Expr.Kind.(pl.LiteralExpr)
	if !ok {
		return e, nil
	}
	switch u.Op {
	case pl.OpNot:
		if v, ok := lit.Value.AsBoolean(); ok {
			return asLiteral(e, pl.Bool(!v)), nil
		}
	case pl.OpNeg:
		switch lit.Value.Kind {
		case pl.LitInteger:
			return asLiteral(e, pl.Int(-lit.Value.Int)), nil
		case pl.LitFloat:
			return asLiteral(e, pl.Float(-lit.Value.Float)), nil
		}
	}
	return e, nil
}

// analyzeCase drops branches whose condition is the literal `false`,
// stops after the first literal `true`, and collapses the whole
// expression to a null literal when no branch survives, or to the branch's
// value when the single survivor's condition is the literal `true`.
func analyzeCase(e *pl.Expr) (*pl.Expr, error) {
	c, ok := e.Kind.(pl.CaseExpr)
	if !ok {
		return e, nil
	}
	kept := make([]pl.CaseBranch, 0, len(c.Cases))
	for _, br := range c.Cases {
		if lit, ok := br.Condition.Kind.(pl.LiteralExpr); ok {
			if v, ok := lit.Value.AsBoolean(); ok {
				if !v {
					continue // always false: drop
				}
				kept = append(kept, br)
				break // always true: nothing after this branch can run
			}
		}
		kept = append(kept, br)
	}

	if len(kept) == 0 {
		lit := pl.New(pl.LiteralExpr{Value: pl.Null()})
		lit.ID = e.ID
		lit.Ty = e.Ty
		lit.Span = e.Span
		lit.Alias = e.Alias
		return lit, nil
	}
	if len(kept) == 1 {
		if lit, ok := kept[0].Condition.Kind.(pl.LiteralExpr); ok {
			if v, ok := lit.Value.AsBoolean(); ok && v {
				val := kept[0].Value
				val.Alias = e.Alias
				return val, nil
			}
		}
	}
	if len(kept) != len(c.Cases) {
		e.Kind = pl.CaseExpr{Cases: kept}
	}
	return e, nil
}

// asLiteral rewrites e in place into a LiteralExpr, preserving its id,
// span, and alias (the id is kept, not reassigned, since downstream
// lowering indexes folded literals by the original expr's id).
func asLiteral(e *pl.Expr, v pl.Literal) *pl.Expr {
	e.Kind = pl.LiteralExpr{Value: v}
	return e
}

func foldComparison(op pl.BinOp, l, r pl.Literal) (bool, bool) {
	cmp, ok := compareLiterals(l, r)
	if !ok {
		return false, false
	}
	switch op {
	case pl.OpEq:
		return cmp == 0, true
	case pl.OpNe:
		return cmp != 0, true
	case pl.OpLt:
		return cmp < 0, true
	case pl.OpLe:
		return cmp <= 0, true
	case pl.OpGt:
		return cmp > 0, true
	case pl.OpGe:
		return cmp >= 0, true
	default:
		return false, false
	}
}

func compareLiterals(l, r pl.Literal) (int, bool) {
	switch l.Kind {
	case pl.LitInteger:
		return signOf(l.Int - r.Int), true
	case pl.LitFloat:
		switch {
		case l.Float < r.Float:
			return -1, true
		case l.Float > r.Float:
			return 1, true
		default:
			return 0, true
		}
	case pl.LitBoolean:
		lv, rv := 0, 0
		if l.Bool {
			lv = 1
		}
		if r.Bool {
			rv = 1
		}
		return signOf(int64(lv - rv)), true
	case pl.LitString, pl.LitDate, pl.LitTime, pl.LitTimestamp:
		switch {
		case l.Str < r.Str:
			return -1, true
		case l.Str > r.Str:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func signOf(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func foldArithmetic(op pl.BinOp, l, r pl.Literal) (pl.Literal, bool) {
	if l.Kind == pl.LitInteger && r.Kind == pl.LitInteger {
		switch op {
		case pl.OpAdd:
			return pl.Int(l.Int + r.Int), true
		case pl.OpSub:
			return pl.Int(l.Int - r.Int), true
		case pl.OpMul:
			return pl.Int(l.Int * r.Int), true
		case pl.OpMod:
			if r.Int == 0 {
				return pl.Literal{}, false
			}
			return pl.Int(l.Int % r.Int), true
		case pl.OpDiv:
			if r.Int == 0 {
				return pl.Literal{}, false
			}
			return pl.Float(float64(l.Int) / float64(r.Int)), true
		}
	}
	if l.Kind == pl.LitFloat && r.Kind == pl.LitFloat {
		switch op {
		case pl.OpAdd:
			return pl.Float(l.Float + r.Float), true
		case pl.OpSub:
			return pl.Float(l.Float - r.Float), true
		case pl.OpMul:
			return pl.Float(l.Float * r.Float), true
		case pl.OpDiv:
			if r.Float == 0 {
				return pl.Literal{}, false
			}
			return pl.Float(l.Float / r.Float), true
		case pl.OpMod:
			return pl.Literal{}, false
		}
	}
	return pl.Literal{}, false
}
