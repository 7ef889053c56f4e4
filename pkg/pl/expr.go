// Package pl implements the PL (Pipelined Language) tree: the resolver's
// input and output representation (spec.md §3 "PL (resolver-facing) tree").
//
// Rust's tagged `ExprKind` enum is expressed here as a sealed Go interface
// (ExprKind) with one concrete struct per variant, following the marker-
// interface idiom the teacher uses for parser.Expr/parser.Statement/
// parser.TableRef in
// _examples/leapstack-labs-leapsql/pkg/parser/ast.go.
package pl

import "github.com/pql-lang/pqlc/pkg/token"

// ExprKind is the sealed set of expression shapes (spec.md §3 "ExprKind
// variants").
type ExprKind interface{ exprKind() }

// Expr is one node of the PL tree. Every field beyond Kind is optional, per
// the invariants in spec.md §3: a freshly-parsed Expr has only Kind and Span
// set; the resolver fills in ID, Ty, TargetID, Lineage, and NeedsWindow as
// it folds.
type Expr struct {
	Kind ExprKind

	Alias string // optional

	Ty      *Ty      // optional; required once resolved (spec.md invariant)
	Lineage *Lineage // optional; required for table-shaped exprs once resolved

	ID       *int // optional; always set once resolved
	TargetID *int // for Ident kind: id of the expr it resolves to

	Span token.Span

	NeedsWindow bool
}

// New wraps a bare ExprKind into an Expr with no optional fields set.
func New(kind ExprKind) *Expr {
	return &Expr{Kind: kind}
}

// WithAlias returns e with Alias set (mutates and returns e, for chaining
// construction in tests and the resolver).
func (e *Expr) WithAlias(alias string) *Expr {
	e.Alias = alias
	return e
}

// HasID reports whether the resolver has assigned this expr an id.
func (e *Expr) HasID() bool { return e.ID != nil }

// AssignedID returns the expr's id, panicking if unassigned. Used only in
// contexts (lowering, anchoring) downstream of the resolver where the
// invariant "every Expr produced by the resolver has id: Some" guarantees
// this is safe (spec.md §3 "Invariants").
func (e *Expr) AssignedID() int {
	if e.ID == nil {
		panic("pl: Expr.AssignedID called on an unresolved expression")
	}
	return *e.ID
}

// ---------- ExprKind variants ----------

// Ident is a reference to a name, resolved via TargetID once folded.
type Ident struct {
	Path []string // dotted path, last segment is the terminal name
}

func (Ident) exprKind() {}

// All is a wildcard expression: every column of `within` except the names
// in `Except`.
type All struct {
	Within *Expr
	Except []*Expr
}

func (All) exprKind() {}

// LiteralExpr wraps a constant value.
type LiteralExpr struct {
	Value Literal
}

func (LiteralExpr) exprKind() {}

// Pipeline is a left-to-right chain of function calls threading a table
// through transforms, e.g. `from t | filter ... | select ...`.
type Pipeline struct {
	Exprs []*Expr
}

func (Pipeline) exprKind() {}

// TupleExpr is an ordered, possibly-named group of fields.
type TupleExpr struct {
	Fields []*Expr
}

func (TupleExpr) exprKind() {}

// ArrayExpr is a literal array value.
type ArrayExpr struct {
	Elements []*Expr
}

func (ArrayExpr) exprKind() {}

// RangeExpr is `start..end`, either bound optional.
type RangeExpr struct {
	Start *Expr
	End   *Expr
}

func (RangeExpr) exprKind() {}

// BinOp enumerates binary operators.
type BinOp int

// Binary operators.
const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpIntDiv // integer division, deliberately not folded by the static analyzer
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpCoalesce // ??
	OpConcat   // ++ / string concat
	OpRegexSearch
)

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinaryExpr) exprKind() {}

// UnOp enumerates unary operators.
type UnOp int

// Unary operators.
const (
	OpNeg UnOp = iota
	OpNot
)

// UnaryExpr is a unary operator application.
type UnaryExpr struct {
	Op   UnOp
	Expr *Expr
}

func (UnaryExpr) exprKind() {}

// NamedArg is one `name: value` named argument to a call.
type NamedArg struct {
	Name  string
	Value *Expr
}

// FuncCall is an unresolved (or partially resolved) function application.
type FuncCall struct {
	Name      *Expr
	Args      []*Expr
	NamedArgs []NamedArg
}

func (FuncCall) exprKind() {}

// FuncExpr wraps a Func value as an expression (e.g. a lambda literal or a
// partially-applied function).
type FuncExpr struct {
	Func *Func
}

func (FuncExpr) exprKind() {}

// InterpolateItemKind distinguishes literal text from an interpolated
// expression inside an SString/FString.
type InterpolateItemKind int

// Interpolation item kinds.
const (
	InterpString InterpolateItemKind = iota
	InterpExpr
)

// InterpolateItem is one piece of an s-string or f-string.
type InterpolateItem struct {
	Kind InterpolateItemKind
	Str  string
	Expr *Expr
}

// SStringExpr is a raw-SQL escape hatch: `s"{col} + 1"`.
type SStringExpr struct {
	Parts []InterpolateItem
}

func (SStringExpr) exprKind() {}

// FStringExpr is a string-interpolation literal: `f"{first} {last}"`.
type FStringExpr struct {
	Parts []InterpolateItem
}

func (FStringExpr) exprKind() {}

// CaseBranch is one `condition => value` arm of a Case.
type CaseBranch struct {
	Condition *Expr
	Value     *Expr
}

// CaseExpr is PQL's `case` expression, lowered to SQL CASE WHEN.
type CaseExpr struct {
	Cases []CaseBranch
}

func (CaseExpr) exprKind() {}

// TransformCallExpr wraps a resolved TransformCall as an expression.
type TransformCallExpr struct {
	Call *TransformCall
}

func (TransformCallExpr) exprKind() {}

// RqOperatorExpr is a resolved built-in operator call, passed through to RQ
// largely unchanged (e.g. `std.neg`, `std.array_in`).
type RqOperatorExpr struct {
	Name string
	Args []*Expr
}

func (RqOperatorExpr) exprKind() {}

// TypeExpr wraps a Ty appearing in expression position (e.g. as an argument
// to a cast-like built-in).
type TypeExpr struct {
	Ty Ty
}

func (TypeExpr) exprKind() {}

// ParamExpr is a positional query parameter placeholder, `$1`.
type ParamExpr struct {
	ID string
}

func (ParamExpr) exprKind() {}

// InternalExpr marks a function body as compiler-internal; the resolver
// dispatches on Name when it folds a fully-applied call to such a function
// (spec.md §4.2.1 "Special functions").
type InternalExpr struct {
	Name string
}

func (InternalExpr) exprKind() {}
