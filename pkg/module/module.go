// Package module implements the module tree: the namespace the resolver
// looks names up in while folding a PL tree (spec.md §4.1 "Module tree").
//
// Grounded on the teacher's dialect.Builder/registry pattern in
// _examples/leapstack-labs-leapsql/pkg/dialect/dialect.go for the "parent
// chain falls back to an enclosing scope" idiom, and on the layered
// redirect-search style of its lineage resolver
// (_examples/leapstack-labs-leapsql/pkg/lineage/resolver.go), adapted here
// from "resolve a column name against known tables" to "resolve an ident
// against a tree of declarations".
package module

import (
	"fmt"
	"sort"

	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// Reserved namespace segments (spec.md §4.1, GLOSSARY).
const (
	NSThis        = "_this"
	NSThat        = "_that"
	NSParam       = "_param"
	NSInfer       = "_infer"
	NSInferModule = "_infer_module"
	NSFrame       = "_frame"
)

// DeclKind is the sealed set of declaration shapes a Decl can carry.
type DeclKind interface{ declKind() }

// ModuleDecl nests a child Module under a name.
type ModuleDecl struct{ Module *Module }

func (ModuleDecl) declKind() {}

// LayeredModulesDecl is a stack of Modules searched top-down, used for
// nested parameter scopes (NS_PARAM).
type LayeredModulesDecl struct{ Stack []*Module }

func (LayeredModulesDecl) declKind() {}

// TableDeclKind declares a real or inferred table and its columns.
type TableDeclKind struct {
	Columns []string
	Expr    *pl.Expr // optional: the relation expression defining it, if not an external table
}

func (TableDeclKind) declKind() {}

// ColumnDeclKind points at the expr id a column name resolves to.
type ColumnDeclKind struct{ ExprID int }

func (ColumnDeclKind) declKind() {}

// InferDeclKind is a placeholder cloned on demand during wildcard inference
// (spec.md §4.1 "Wildcard inference").
type InferDeclKind struct{ Template *Decl }

func (InferDeclKind) declKind() {}

// InstanceOfDeclKind marks a declaration as a named instance of a
// fully-qualified table, carrying its inferred type.
type InstanceOfDeclKind struct {
	FQTable ident.Ident
	Ty      pl.Ty
}

func (InstanceOfDeclKind) declKind() {}

// ExprDeclKind binds a name directly to an expression (e.g. a `let`).
type ExprDeclKind struct{ Expr *pl.Expr }

func (ExprDeclKind) declKind() {}

// ImportDeclKind re-exports another module's path under a local name.
type ImportDeclKind struct{ Target ident.Ident }

func (ImportDeclKind) declKind() {}

// TyDeclKind binds a name to a declared type alias.
type TyDeclKind struct{ Ty pl.Ty }

func (TyDeclKind) declKind() {}

// FuncDeclKind binds a name to a function value.
type FuncDeclKind struct{ Func *pl.Func }

func (FuncDeclKind) declKind() {}

// ParamDeclKind binds a name to a bound function parameter value during
// call evaluation.
type ParamDeclKind struct{ Expr *pl.Expr }

func (ParamDeclKind) declKind() {}

// Decl is one entry of a Module: a kind plus bookkeeping metadata.
type Decl struct {
	Kind       DeclKind
	DeclaredAt *int // expr id of the declaration site, if any
	Order      int  // insertion order, used to break lookup ties deterministically
}

// Module maps names to declarations, plus an optional list of redirect
// paths consulted during fallback lookup (spec.md §4.2 "Name resolution
// fallback").
type Module struct {
	Names     map[string]*Decl
	Redirects []ident.Ident

	order int
}

// New returns an empty Module.
func New() *Module {
	return &Module{Names: make(map[string]*Decl)}
}

// Insert walks path, auto-creating intermediate Modules, and replaces the
// terminal segment's Decl (spec.md §4.1 "insert").
func (m *Module) Insert(path ident.Ident, kind DeclKind) *Decl {
	cur := m
	parts := path.Parts
	if len(parts) == 0 {
		return nil
	}
	for _, seg := range parts[:len(parts)-1] {
		cur = cur.childModule(seg)
	}
	last := parts[len(parts)-1]
	cur.order++
	d := &Decl{Kind: kind, Order: cur.order}
	cur.Names[last] = d
	return d
}

// childModule returns the nested Module at name, creating an empty one
// (wrapped in a ModuleDecl) if absent. If name already holds a
// LayeredModulesDecl, descends into its top-of-stack module.
func (m *Module) childModule(name string) *Module {
	d, ok := m.Names[name]
	if !ok {
		child := New()
		m.order++
		m.Names[name] = &Decl{Kind: ModuleDecl{Module: child}, Order: m.order}
		return child
	}
	switch k := d.Kind.(type) {
	case ModuleDecl:
		return k.Module
	case LayeredModulesDecl:
		if len(k.Stack) == 0 {
			child := New()
			k.Stack = append(k.Stack, child)
			d.Kind = k
			return child
		}
		return k.Stack[len(k.Stack)-1]
	default:
		child := New()
		m.Names[name] = &Decl{Kind: ModuleDecl{Module: child}, Order: m.order}
		return child
	}
}

// Get descends strictly along fqIdent, returning the terminal Decl.
// LayeredModules resolve by scanning top-of-stack downward for the next
// segment (spec.md §4.1 "get"). A name hidden by Shadow (its placeholder
// Decl has no Kind) is reported as absent.
func (m *Module) Get(fqIdent ident.Ident) (*Decl, bool) {
	cur := m
	parts := fqIdent.Parts
	if len(parts) == 0 {
		return nil, false
	}
	for i, seg := range parts {
		d, ok := cur.Names[seg]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			if d.Kind == nil {
				return nil, false
			}
			return d, true
		}
		switch k := d.Kind.(type) {
		case ModuleDecl:
			cur = k.Module
		case LayeredModulesDecl:
			found := false
			for j := len(k.Stack) - 1; j >= 0; j-- {
				if _, ok := k.Stack[j].Names[parts[i+1]]; ok {
					cur = k.Stack[j]
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return nil, false
}

// Lookup searches the current module plus each of m.Redirects (via root)
// for ident, returning every fully-qualified match (spec.md §4.1 "lookup").
// An empty result means unknown; more than one means ambiguous.
func (m *Module) Lookup(root *Module, name ident.Ident) []ident.Ident {
	var matches []ident.Ident
	if _, ok := m.Get(name); ok {
		matches = append(matches, name)
	}
	for _, redirect := range m.Redirects {
		candidate := ident.Concat(redirect, name)
		if _, ok := root.Get(candidate); ok {
			matches = append(matches, candidate)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].String() < matches[j].String() })
	return matches
}

// Shadow hides an existing declaration behind a new empty one at name,
// returning the previous Decl (or nil) so Unshadow can restore it.
func (m *Module) Shadow(name string) *Decl {
	prev := m.Names[name]
	m.order++
	m.Names[name] = &Decl{Order: m.order}
	return prev
}

// Unshadow restores a Decl previously displaced by Shadow, or removes the
// placeholder entirely if prev is nil.
func (m *Module) Unshadow(name string, prev *Decl) {
	if prev == nil {
		delete(m.Names, name)
		return
	}
	m.Names[name] = prev
}

// StackPush pushes a fresh empty Module onto the LayeredModulesDecl at
// name, creating the layered decl if absent (spec.md §4.1 "stack_push",
// used for NS_PARAM scopes during call evaluation).
func (m *Module) StackPush(name string) *Module {
	d, ok := m.Names[name]
	var layered LayeredModulesDecl
	if ok {
		if l, ok := d.Kind.(LayeredModulesDecl); ok {
			layered = l
		}
	}
	fresh := New()
	layered.Stack = append(layered.Stack, fresh)
	if ok {
		d.Kind = layered
	} else {
		m.order++
		m.Names[name] = &Decl{Kind: layered, Order: m.order}
	}
	return fresh
}

// StackPop pops the top Module off the LayeredModulesDecl at name.
func (m *Module) StackPop(name string) {
	d, ok := m.Names[name]
	if !ok {
		return
	}
	layered, ok := d.Kind.(LayeredModulesDecl)
	if !ok || len(layered.Stack) == 0 {
		return
	}
	layered.Stack = layered.Stack[:len(layered.Stack)-1]
	d.Kind = layered
}

// Infer materializes a new declaration by cloning the NS_INFER placeholder
// found in scope, inserting it at name (spec.md §4.1 "Wildcard inference").
// Returns false if no Infer placeholder is present.
func (m *Module) Infer(name string) (*Decl, bool) {
	d, ok := m.Names[NSInfer]
	if !ok {
		return nil, false
	}
	infer, ok := d.Kind.(InferDeclKind)
	if !ok || infer.Template == nil {
		return nil, false
	}
	clone := *infer.Template
	m.order++
	clone.Order = m.order
	m.Names[name] = &clone
	return &clone, true
}

// String is a debug rendering used by `debug` CLI subcommands.
func (d *Decl) String() string {
	if d == nil {
		return "<nil>"
	}
	switch k := d.Kind.(type) {
	case ModuleDecl:
		return "module"
	case TableDeclKind:
		return fmt.Sprintf("table(%v)", k.Columns)
	case ColumnDeclKind:
		return fmt.Sprintf("column(#%d)", k.ExprID)
	case FuncDeclKind:
		return "func"
	default:
		return "decl"
	}
}
