// Package anchor implements the anchor stage (spec.md §4.5 "Anchor
// (C7-C8)"): deciding how an RQ pipeline partitions into one-or-more SQL
// SELECT statements, and assigning stable table/relation-instance names.
//
// Ported from the original Rust compiler's anchor module
// (_examples/original_source/prqlc/prqlc/src/sql/pq/anchor.rs), expressed
// in Go using the same sealed-interface idiom the rest of this compiler
// uses for tagged unions, and reusing the teacher's layered-registry style
// (_examples/leapstack-labs-leapsql/pkg/dialect/dialect.go) for the
// Context's generator/table-decl bookkeeping.
package anchor

import (
	"fmt"

	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// ColumnDeclKind is the sealed set of ways a CId can be declared.
type ColumnDeclKind interface{ columnDeclKind() }

// RelationColumnDecl marks a CId as coming directly from a relation
// instance at a fixed position.
type RelationColumnDecl struct {
	Instance ids.RIId
	Position int
	Column   rq.RelationColumn
}

func (RelationColumnDecl) columnDeclKind() {}

// ComputeColumnDecl marks a CId as produced by a Compute within the
// current atomic pipeline.
type ComputeColumnDecl struct{ Compute rq.Compute }

func (ComputeColumnDecl) columnDeclKind() {}

// RelationStatus tracks whether a table's defining relation has already
// been flattened into SQL, or is still pending.
type RelationStatus int

// Relation statuses.
const (
	NotYetDefined RelationStatus = iota
	Preprocessed
	Defined
)

// SqlTableDecl is the anchor-phase view of a TId: a stable name (assigned
// lazily) and whether it redirects to another table (CTE deduplication).
type SqlTableDecl struct {
	ID             ids.TId
	Name           string
	Status         RelationStatus
	RedirectTo     *ids.TId
}

// RelationInstance is one use-site of a TableRef within a pipeline: the
// table it refers to, and the CId redirects that apply when the
// surrounding pipeline was split off from a larger one (spec.md §4.5
// "relation_instances").
type RelationInstance struct {
	ID           ids.RIId
	TableRef     rq.TableRef
	CidRedirects map[ids.CId]ids.CId
	Alias        string
}

// PositionalMapping records, for a wildcard-bearing relation instance, the
// column position each emitted CId actually occupies — used to keep
// `SELECT *` positions stable across splits.
type PositionalMapping map[ids.RIId][]ids.CId

// Context holds all mutable anchor-phase state (spec.md §4.5 "State").
type Context struct {
	gen *ids.Generators

	ColumnDecls map[ids.CId]ColumnDeclKind
	ColumnNames map[ids.CId]string

	TableDecls map[ids.TId]*SqlTableDecl

	RelationInstances map[ids.RIId]*RelationInstance

	Positional PositionalMapping

	tableNameSeq int
}

// NewContext builds an empty anchor Context sharing gen with the rest of
// the compiler pipeline.
func NewContext(gen *ids.Generators) *Context {
	return &Context{
		gen:               gen,
		ColumnDecls:       make(map[ids.CId]ColumnDeclKind),
		ColumnNames:       make(map[ids.CId]string),
		TableDecls:        make(map[ids.TId]*SqlTableDecl),
		RelationInstances: make(map[ids.RIId]*RelationInstance),
		Positional:        make(PositionalMapping),
	}
}

// Complexity classifies how restrictively a Compute may appear in a single
// SELECT (spec.md §4.5 "Complexity classes").
type Complexity int

// Complexity classes, ordered from least to most restrictive position.
const (
	ComplexityAggregation Complexity = iota
	ComplexityWindowed
	ComplexityNonGroup
	ComplexityPlain
)

// InferComplexity classifies a Compute by inspecting its expression shape.
func InferComplexity(c rq.Compute) Complexity {
	if c.IsAggregation {
		return ComplexityAggregation
	}
	if c.Window != nil {
		return ComplexityWindowed
	}
	if containsCase(c.Expr) {
		return ComplexityNonGroup
	}
	return ComplexityPlain
}

func containsCase(e *rq.Expr) bool {
	if e == nil {
		return false
	}
	switch k := e.Kind.(type) {
	case rq.Case:
		return true
	case rq.Operator:
		for _, a := range k.Args {
			if containsCase(a) {
				return true
			}
		}
	}
	return false
}

// RegisterTable ensures t has a SqlTableDecl, creating one if absent.
func (c *Context) RegisterTable(t ids.TId) *SqlTableDecl {
	if d, ok := c.TableDecls[t]; ok {
		return d
	}
	d := &SqlTableDecl{ID: t, Status: NotYetDefined}
	c.TableDecls[t] = d
	return d
}

// RegisterRelationInstance mints a fresh RIId for one use-site of ref,
// registers its RelationInstance, and declares each of ref's columns as a
// RelationColumnDecl (spec.md §4.5 "relation_instances"). Used by the
// emitter-facing stage to promote a pipeline's own leading rq.From into
// the pq.FromInstance the builder renders.
func (c *Context) RegisterRelationInstance(ref rq.TableRef) *RelationInstance {
	c.RegisterTable(ref.Source)
	riid := c.gen.RIId.Next()
	ri := &RelationInstance{ID: riid, TableRef: ref, CidRedirects: map[ids.CId]ids.CId{}}
	c.RelationInstances[riid] = ri
	for pos, col := range ref.Columns {
		c.ColumnDecls[col.ID] = RelationColumnDecl{Instance: riid, Position: pos, Column: col.Column}
	}
	return ri
}

// CidCollector walks an Expr tree and records every ColumnRef it touches,
// the Go counterpart of the Rust anchor module's CidCollector fold.
type CidCollector struct{ Found map[ids.CId]bool }

// NewCidCollector returns an empty collector.
func NewCidCollector() *CidCollector { return &CidCollector{Found: make(map[ids.CId]bool)} }

// Collect walks e, recording every CId referenced.
func (cc *CidCollector) Collect(e *rq.Expr) {
	if e == nil {
		return
	}
	switch k := e.Kind.(type) {
	case rq.ColumnRef:
		cc.Found[k.ID] = true
	case rq.Operator:
		for _, a := range k.Args {
			cc.Collect(a)
		}
	case rq.Case:
		for _, br := range k.Branches {
			cc.Collect(br.Condition)
			cc.Collect(br.Value)
		}
	case rq.SString:
		for _, p := range k.Parts {
			if p.Kind == rq.PartExpr {
				cc.Collect(p.Expr)
			}
		}
	case rq.FString:
		for _, p := range k.Parts {
			if p.Kind == rq.PartExpr {
				cc.Collect(p.Expr)
			}
		}
	}
}

// CidRedirector rewrites every ColumnRef in an Expr tree through a
// redirect map, used after anchor_split moves a pipeline prefix behind a
// new relation instance.
type CidRedirector struct{ Redirects map[ids.CId]ids.CId }

// Redirect returns a new *rq.Expr with every ColumnRef passed through
// cr.Redirects (identity for CIds with no entry).
func (cr *CidRedirector) Redirect(e *rq.Expr) *rq.Expr {
	if e == nil {
		return nil
	}
	switch k := e.Kind.(type) {
	case rq.ColumnRef:
		if to, ok := cr.Redirects[k.ID]; ok {
			return &rq.Expr{Kind: rq.ColumnRef{ID: to}}
		}
		return e
	case rq.Operator:
		args := make([]*rq.Expr, len(k.Args))
		for i, a := range k.Args {
			args[i] = cr.Redirect(a)
		}
		return &rq.Expr{Kind: rq.Operator{Name: k.Name, Args: args}}
	case rq.Case:
		branches := make([]rq.CaseBranch, len(k.Branches))
		for i, br := range k.Branches {
			branches[i] = rq.CaseBranch{Condition: cr.Redirect(br.Condition), Value: cr.Redirect(br.Value)}
		}
		return &rq.Expr{Kind: rq.Case{Branches: branches}}
	case rq.SString:
		parts := append([]rq.InterpolatePart(nil), k.Parts...)
		for i := range parts {
			parts[i].Expr = cr.Redirect(parts[i].Expr)
		}
		return &rq.Expr{Kind: rq.SString{Parts: parts}}
	case rq.FString:
		parts := append([]rq.InterpolatePart(nil), k.Parts...)
		for i := range parts {
			parts[i].Expr = cr.Redirect(parts[i].Expr)
		}
		return &rq.Expr{Kind: rq.FString{Parts: parts}}
	default:
		return e
	}
}

// AssignTableNames assigns a unique generated name (table_0, table_1, ...)
// to every SqlTableDecl that has none, regenerating on collision (spec.md
// §4.5.2 "Name assignment").
func (c *Context) AssignTableNames() {
	used := make(map[string]bool)
	for _, d := range c.TableDecls {
		if d.Name != "" {
			used[d.Name] = true
		}
	}
	for _, d := range c.TableDecls {
		if d.Name != "" {
			continue
		}
		for {
			name := fmt.Sprintf("table_%d", c.tableNameSeq)
			c.tableNameSeq++
			if !used[name] {
				d.Name = name
				used[name] = true
				break
			}
		}
	}
}

// AssignInstanceAlias picks an alias for ri distinct from every other
// instance's alias within the same atomic pipeline, preferring (in order)
// an existing alias, the underlying table's name, then a generated one
// (spec.md §4.5.2).
func (c *Context) AssignInstanceAlias(ri *RelationInstance, tableName string, taken map[string]bool) string {
	if ri.Alias != "" && !taken[ri.Alias] {
		return ri.Alias
	}
	if tableName != "" && !taken[tableName] {
		ri.Alias = tableName
		return tableName
	}
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("_t%d", i)
		if !taken[candidate] {
			ri.Alias = candidate
			return candidate
		}
	}
}
