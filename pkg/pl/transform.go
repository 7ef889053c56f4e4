package pl

// SortDirection is ascending or descending.
type SortDirection int

// Sort directions.
const (
	Asc SortDirection = iota
	Desc
)

// ColumnSort pairs a direction with the expression (or, after lowering, the
// CId) being sorted on. Generic over the column representation so both PL
// (column = *Expr) and RQ (column = ids.CId) can reuse the same shape —
// grounded on the teacher's parser.OrderByItem interface-based item list in
// _examples/leapstack-labs-leapsql/pkg/parser/ast.go, generalized to a
// typed generic instead of an opaque interface.
type ColumnSort[C any] struct {
	Direction SortDirection
	Column    C
}

// JoinSide is one of the four join kinds spec.md §4.2.1 `join` accepts.
type JoinSide int

// Join sides.
const (
	JoinInner JoinSide = iota
	JoinLeft
	JoinRight
	JoinFull
)

// String renders the join side the way PQL source spells it.
func (s JoinSide) String() string {
	switch s {
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	default:
		return "inner"
	}
}

// WindowKind distinguishes ROWS framing from RANGE framing.
type WindowKind int

// Window kinds.
const (
	WindowRows WindowKind = iota
	WindowRange
)

// WindowBound is one edge of a window frame: nil means unbounded.
type WindowBound struct {
	Value *int // offset from current row; nil = unbounded
}

// Unbounded is an unbounded window edge.
func Unbounded() WindowBound { return WindowBound{} }

// Bound builds a finite window edge at the given offset.
func Bound(v int) WindowBound { return WindowBound{Value: &v} }

// IsUnbounded reports whether b has no finite offset.
func (b WindowBound) IsUnbounded() bool { return b.Value == nil }

// Frame is the (kind, range) pair describing a SQL window's row/range
// bounds (spec.md GLOSSARY "Frame").
type Frame struct {
	Kind  WindowKind
	Start WindowBound
	End   WindowBound
}

// TransformKindTag names the seven... eleven transform kinds spec.md §3
// lists for TransformCall.Kind.
type TransformKindTag int

// Transform kind tags.
const (
	TSelect TransformKindTag = iota
	TDerive
	TFilter
	TAggregate
	TSort
	TTake
	TJoin
	TGroup
	TWindow
	TAppend
	TLoop
)

// String renders the tag the way the `debug annotate` output names it.
func (t TransformKindTag) String() string {
	names := [...]string{"select", "derive", "filter", "aggregate", "sort", "take", "join", "group", "window", "append", "loop"}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// TransformKind is the sealed set of transform payload shapes.
type TransformKind interface {
	transformKind() TransformKindTag
}

// SelectKind carries the tuple of assignments for `select`.
type SelectKind struct{ Assigns *Expr }

func (SelectKind) transformKind() TransformKindTag { return TSelect }

// DeriveKind carries the tuple of assignments for `derive`.
type DeriveKind struct{ Assigns *Expr }

func (DeriveKind) transformKind() TransformKindTag { return TDerive }

// FilterKind carries the boolean predicate for `filter`.
type FilterKind struct{ Filter *Expr }

func (FilterKind) transformKind() TransformKindTag { return TFilter }

// AggregateKind carries the tuple of aggregate assignments.
type AggregateKind struct{ Assigns *Expr }

func (AggregateKind) transformKind() TransformKindTag { return TAggregate }

// SortKind carries the ordered list of sort keys.
type SortKind struct{ By []ColumnSort[*Expr] }

func (SortKind) transformKind() TransformKindTag { return TSort }

// TakeKind carries the row range to keep.
type TakeKind struct{ Range RangeExpr }

func (TakeKind) transformKind() TransformKindTag { return TTake }

// JoinKind carries the join side, the relation joined in, and the filter.
type JoinKind struct {
	Side   JoinSide
	With   *Expr
	Filter *Expr
}

func (JoinKind) transformKind() TransformKindTag { return TJoin }

// GroupKind carries the grouping keys and the per-partition pipeline.
type GroupKind struct {
	By       *Expr
	Pipeline *Expr // a one-parameter Func, see spec.md §4.2.2
}

func (GroupKind) transformKind() TransformKindTag { return TGroup }

// WindowKind_ carries the explicit frame fields plus the per-partition
// pipeline. Named with a trailing underscore to avoid colliding with the
// WindowKind (Rows/Range) type above.
type WindowKind_ struct {
	Rows      *RangeExpr
	Range     *RangeExpr
	Expanding bool
	Rolling   int
	Pipeline  *Expr
}

func (WindowKind_) transformKind() TransformKindTag { return TWindow }

// AppendKind carries the bottom relation appended beneath the input.
type AppendKind struct{ Bottom *Expr }

func (AppendKind) transformKind() TransformKindTag { return TAppend }

// LoopKind carries the repeatedly-applied sub-pipeline.
type LoopKind struct{ Pipeline *Expr }

func (LoopKind) transformKind() TransformKindTag { return TLoop }

// TransformCall is a resolved, typed transform application (spec.md §3
// "TransformCall"). Partition/Frame/Sort are populated during flattening —
// they start nil/zero when the resolver first builds the TransformCall, and
// are only filled in once the surrounding `group`/`window` context is known.
type TransformCall struct {
	Kind  TransformKind
	Input *Expr

	Partition []*Expr
	Frame     *Frame
	Sort      []ColumnSort[*Expr]
}

// KindTag is a convenience accessor over the embedded interface.
func (t *TransformCall) KindTag() TransformKindTag { return t.Kind.transformKind() }
