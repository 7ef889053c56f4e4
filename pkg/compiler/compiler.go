// Package compiler implements the top-level Compile entrypoint (spec.md
// §2 "The core is a linear multi-stage pipeline"): it wires the resolver,
// lowerer, anchor, PQ pre/postprocessing, and SQL emitter stages together
// against a single shared id-generator set, and owns the Options surface
// the CLI (out of this compiler's scope) configures.
//
// Grounded on the teacher's top-level pipeline.Run orchestration in
// _examples/leapstack-labs-leapsql/pkg/pipeline for the "one function
// wires every stage, returns the first fatal error" shape.
package compiler

import (
	"fmt"

	"github.com/pql-lang/pqlc/pkg/anchor"
	"github.com/pql-lang/pqlc/pkg/ids"
	"github.com/pql-lang/pqlc/pkg/perrors"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/pq"
	"github.com/pql-lang/pqlc/pkg/resolver"
	"github.com/pql-lang/pqlc/pkg/rq"
	"github.com/pql-lang/pqlc/pkg/sqlwriter"
	"github.com/pql-lang/pqlc/pkg/target"
)

// Version is the compiler-version constant, printed in the signature
// comment and by the CLI's `version` command (spec.md §9 "Global state").
// pkg/resolver's `prql_version` special function returns the same string
// as its own literal.
const Version = "0.1.0"

// Options configures one Compile call (spec.md §6 "CLI surface"
// `compile` flags).
type Options struct {
	// Target is a dialect name as registered in pkg/target (e.g.
	// "postgres", "generic"). Empty defaults to "generic".
	Target string

	// HideSignatureComment suppresses the "-- Generated by PQLC <version>"
	// comment line this package otherwise prepends to the SQL.
	HideSignatureComment bool

	// Tables declares the columns of every extern table `from` may
	// reference. There is no catalog or type checker to infer this from
	// (spec.md §1 "Out of scope"), so the caller states it explicitly.
	Tables map[string][]string
}

func (o Options) dialectName() string {
	if o.Target == "" {
		return "generic"
	}
	return o.Target
}

// Compile runs the full PL -> SQL pipeline over an already-resolved-or-
// resolvable root pipeline expression (spec.md §1 "Out of scope": parsing
// PQL source into this tree is the caller's responsibility). It returns
// the rendered SQL string, or the accumulated Errors from whichever stage
// failed first (spec.md §7 "Propagation policy").
func Compile(root *pl.Expr, opts Options) (string, error) {
	dialect, err := target.Lookup(opts.dialectName())
	if err != nil {
		return "", perrors.Errors{perrors.New(perrors.Simple{Message: err.Error()})}
	}

	rootModule := NewRootModule(opts.Tables)
	res := resolver.New(rootModule)
	resolved, err := res.Fold(root)
	if err != nil {
		if perr, ok := err.(*perrors.Error); ok {
			return "", perrors.Errors{perr}
		}
		return "", perrors.Errors{perrors.New(perrors.Simple{Message: err.Error()})}
	}

	gen := ids.NewGenerators()
	lw := rq.NewLowerer(gen)
	transforms, output, err := lw.Lower(resolved)
	if err != nil {
		return "", perrors.Errors{perrors.New(perrors.Simple{Message: err.Error()})}
	}

	ctx := anchor.NewContext(gen)
	for cid, name := range lw.ColumnNames() {
		ctx.ColumnNames[cid] = name
	}
	// Real source tables keep their own name; only tables the anchor
	// splits off (no name of their own) get a generated one below.
	for _, td := range lw.Tables() {
		ctx.RegisterTable(td.ID).Name = td.Name
	}

	ctes, mainRel := splitIntoCtes(ctx, transforms, output)
	ctx.AssignTableNames()
	for i := range ctes {
		ctes[i].Name = ctx.TableDecls[ctes[i].Table].Name
	}
	// A split-off table's own TableRef carries no name (AnchorSplit only
	// knows the TId); qualify its column references with the name
	// AssignTableNames just gave it.
	for _, ri := range ctx.RelationInstances {
		if ri.TableRef.Name == "" {
			ri.Alias = ctx.TableDecls[ri.TableRef.Source].Name
		}
	}

	q := &pq.SqlQuery{Ctes: ctes, MainRelation: mainRel}
	q = pq.Postprocess(q)

	builder := sqlwriter.NewBuilder(ctx, dialect)
	stmt, buildErr := builder.BuildQuery(q)
	if buildErr != nil {
		return "", perrors.Errors{perrors.New(perrors.Simple{Message: buildErr.Error()})}
	}

	printer := sqlwriter.NewPrinter(dialect)
	printer.PrintStatement(stmt)
	out := printer.String()

	if !opts.HideSignatureComment {
		out = fmt.Sprintf("-- Generated by PQLC %s\n%s", Version, out)
	}
	return out, nil
}
