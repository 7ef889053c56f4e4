// Package ids provides the opaque, strictly increasing integer handles used
// throughout the compiler: column ids (CId), table ids (TId), and relation
// instance ids (RIId).
//
// Grounded on the counter idiom in
// _examples/original_source/prqlc/prqlc/src/utils/id_gen.rs: three
// independent monotonic counters, each reloadable to max(existing)+1 when
// resuming from deserialized PL/RQ input.
package ids

import "fmt"

// CId identifies a column.
type CId int

// TId identifies a table (a pipeline or an extern reference).
type TId int

// RIId identifies a relation instance: one particular use of a table within
// a pipeline (the same TId can be instantiated multiple times, e.g. a
// self-join).
type RIId int

func (c CId) String() string  { return fmt.Sprintf("c%d", int(c)) }
func (t TId) String() string  { return fmt.Sprintf("t%d", int(t)) }
func (r RIId) String() string { return fmt.Sprintf("ri%d", int(r)) }

// Gen is a monotonically increasing counter for one id kind.
//
// Gen is not safe for concurrent use from multiple goroutines; per spec.md
// §5, compilation is single-threaded and each compilation owns independent
// generators.
type Gen[T ~int] struct {
	next int
}

// New returns a generator that will produce 0, 1, 2, ...
func New[T ~int]() *Gen[T] {
	return &Gen[T]{}
}

// Next allocates and returns a fresh id.
func (g *Gen[T]) Next() T {
	v := T(g.next)
	g.next++
	return v
}

// Peek returns the id that the next call to Next will produce, without
// allocating it.
func (g *Gen[T]) Peek() T {
	return T(g.next)
}

// EnsureAtLeast bumps the generator so that the next allocated id is greater
// than every id already in use. Used when loading a deserialized RQ tree:
// the three counters are "loaded to max(existing)+1" (spec.md §3 "Identifiers").
func (g *Gen[T]) EnsureAtLeast(used T) {
	if int(used)+1 > g.next {
		g.next = int(used) + 1
	}
}

// Generators bundles the three id counters a compilation needs.
type Generators struct {
	CId  *Gen[CId]
	TId  *Gen[TId]
	RIId *Gen[RIId]
}

// NewGenerators returns a fresh, independent set of id counters.
func NewGenerators() *Generators {
	return &Generators{
		CId:  New[CId](),
		TId:  New[TId](),
		RIId: New[RIId](),
	}
}
