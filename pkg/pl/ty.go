package pl

// PrimitiveKind enumerates PQL's scalar primitive types.
type PrimitiveKind int

// Primitive kinds.
const (
	PrimInt PrimitiveKind = iota
	PrimFloat
	PrimBool
	PrimText
	PrimDate
	PrimTime
	PrimTimestamp
)

// TyKind is the sealed set of type shapes a Ty can take. It is implemented
// by TyPrimitive, TySingleton, TyUnion, TyTuple, TyArray, TyFunction, and
// TySet (spec.md §3 "Types").
type TyKind interface{ tyKind() }

// Ty is a PQL type: a shape (TyKind) plus an optional declared name, e.g. a
// relation type named "customers" still has TyKind = Array{Tuple{...}}.
type Ty struct {
	Kind TyKind
	Name string // optional declared name, "" if anonymous
}

// TyPrimitive is a scalar type.
type TyPrimitive struct{ Kind PrimitiveKind }

func (TyPrimitive) tyKind() {}

// TySingleton is the type of a single literal value (used for literal
// narrowing, e.g. in Case branch pruning).
type TySingleton struct{ Value Literal }

func (TySingleton) tyKind() {}

// TyUnion is a tagged union of named variants.
type TyUnion struct {
	Variants []TyUnionVariant
}

func (TyUnion) tyKind() {}

// TyUnionVariant names one branch of a TyUnion.
type TyUnionVariant struct {
	Name string
	Ty   *Ty
}

// TupleFieldKind distinguishes a named/typed field from a wildcard slot in a
// tuple type.
type TupleFieldKind int

// Tuple field kinds.
const (
	FieldSingle TupleFieldKind = iota
	FieldWildcard
)

// TupleField is one field of a TyTuple: either Single{name?, ty?} or
// Wildcard{ty?} per spec.md §3.
type TupleField struct {
	Kind TupleFieldKind
	Name string // only for FieldSingle; may be ""
	Ty   *Ty    // may be nil (unknown/unresolved)
}

// TyTuple is a tuple (row) type: an ordered list of fields.
type TyTuple struct {
	Fields []TupleField
}

func (TyTuple) tyKind() {}

// TyArray is an array of elements of a uniform type.
type TyArray struct {
	Elem *Ty
}

func (TyArray) tyKind() {}

// TyFunction is the type of a (possibly partially applied) function value.
type TyFunction struct {
	Params  []*Ty // positional parameter types, nil entries are unannotated
	Return  *Ty
	Generic []string // generic type parameter names
}

func (TyFunction) tyKind() {}

// TySet marks a type used only in set-membership contexts (the type of an
// `in` pattern), not a concrete value type.
type TySet struct{ Elem *Ty }

func (TySet) tyKind() {}

// RelationTy builds the "relation type" spec.md §3 describes as
// `Array<Tuple<...>>`: a table-shaped expression's type.
func RelationTy(fields []TupleField) Ty {
	return Ty{Kind: TyArray{Elem: &Ty{Kind: TyTuple{Fields: fields}}}}
}

// IsRelation reports whether t is a relation type (Array of Tuple).
func (t Ty) IsRelation() bool {
	arr, ok := t.Kind.(TyArray)
	if !ok || arr.Elem == nil {
		return false
	}
	_, ok = arr.Elem.Kind.(TyTuple)
	return ok
}

// TupleFields returns the fields of t if t is a tuple or relation type, and
// ok=true. Otherwise returns nil, false.
func (t Ty) TupleFields() ([]TupleField, bool) {
	switch k := t.Kind.(type) {
	case TyTuple:
		return k.Fields, true
	case TyArray:
		if k.Elem != nil {
			if tup, ok := k.Elem.Kind.(TyTuple); ok {
				return tup.Fields, true
			}
		}
	}
	return nil, false
}

// TyBool is the boolean primitive type, used pervasively to type-check
// `filter` predicates (spec.md §4.2.1).
func TyBool() Ty { return Ty{Kind: TyPrimitive{Kind: PrimBool}} }

// TyInt is the integer primitive type.
func TyInt() Ty { return Ty{Kind: TyPrimitive{Kind: PrimInt}} }

// TyFloat is the float primitive type.
func TyFloat() Ty { return Ty{Kind: TyPrimitive{Kind: PrimFloat}} }

// TyText is the text primitive type.
func TyText() Ty { return Ty{Kind: TyPrimitive{Kind: PrimText}} }

// IsBool reports whether t is the boolean primitive.
func (t Ty) IsBool() bool {
	p, ok := t.Kind.(TyPrimitive)
	return ok && p.Kind == PrimBool
}
