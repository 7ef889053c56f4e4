package rq

import "github.com/pql-lang/pqlc/pkg/ids"

// ExprKind is the sealed set of RQ expression shapes (spec.md §3
// "Expr in RQ").
type ExprKind interface{ exprKind() }

// Expr is one RQ expression node.
type Expr struct {
	Kind ExprKind
}

// ColumnRef references a previously-declared column by id.
type ColumnRef struct{ ID ids.CId }

func (ColumnRef) exprKind() {}

// LiteralKind mirrors pl.LiteralKind without importing pl (RQ must not
// depend back on PL).
type LiteralKind int

// Literal kinds.
const (
	LitNull LiteralKind = iota
	LitInt
	LitFloat
	LitBool
	LitString
	LitDate
	LitTime
	LitTimestamp
)

// Literal is a constant value carried into RQ.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func (Literal) exprKind() {}

// InterpolatePartKind distinguishes literal text from an embedded
// expression inside an SString/FString.
type InterpolatePartKind int

// Interpolate part kinds.
const (
	PartString InterpolatePartKind = iota
	PartExpr
)

// InterpolatePart is one piece of an SString or FString.
type InterpolatePart struct {
	Kind InterpolatePartKind
	Str  string
	Expr *Expr
}

// SString is a raw-SQL escape hatch, passed through to the emitter mostly
// verbatim.
type SString struct{ Parts []InterpolatePart }

func (SString) exprKind() {}

// FString is a string-interpolation literal, lowered to SQL string
// concatenation by the emitter.
type FString struct{ Parts []InterpolatePart }

func (FString) exprKind() {}

// CaseBranch is one `when condition then value` arm.
type CaseBranch struct {
	Condition *Expr
	Value     *Expr
}

// Case is a CASE WHEN expression (spec.md §4.5 "Complexity classes":
// Case makes a Compute NonGroup).
type Case struct{ Branches []CaseBranch }

func (Case) exprKind() {}

// Operator is a resolved built-in or dialect operator call (e.g.
// `std.neg`, aggregate functions, arithmetic).
type Operator struct {
	Name string
	Args []*Expr
}

func (Operator) exprKind() {}

// Param is a positional query parameter placeholder.
type Param struct{ ID string }

func (Param) exprKind() {}
