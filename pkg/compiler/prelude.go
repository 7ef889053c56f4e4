package compiler

import (
	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/module"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// NewRootModule builds the root module tree every compilation starts
// from: one Func declaration per special function (spec.md §4.2.1), each
// a thin positional-parameter shell whose body is Internal(name) so
// dispatchSpecial recognizes it once fully applied, plus one TableDeclKind
// per entry of tables so `from <name>` resolves against a caller-supplied
// schema instead of erroring out as unknown (spec.md §1 "Out of scope":
// there is no type checker or catalog to infer a schema from, so the
// caller states it up front).
//
// Real prqlc parses `std.*` from an embedded PRQL source file at resolver
// initialization (spec.md §9 "Global state"); parsing is out of this
// compiler's scope (spec.md §1), so the equivalent declarations are built
// directly as pl.Func values instead of round-tripping through source
// text.
func NewRootModule(tables map[string][]string) *module.Module {
	root := module.New()
	for _, b := range builtins {
		fn := &pl.Func{
			Params:   paramsFor(b.params),
			Body:     pl.New(pl.InternalExpr{Name: b.name}),
			NameHint: b.name,
		}
		root.Insert(ident.FromName(b.name), module.FuncDeclKind{Func: fn})
	}
	for name, columns := range tables {
		root.Insert(ident.FromName(name), module.TableDeclKind{Columns: columns})
	}
	return root
}

type builtin struct {
	name   string
	params []string
}

// builtins lists every special function's name and the positional
// parameter order dispatchSpecial's positional(applied, i) calls assume.
var builtins = []builtin{
	{"from", []string{"table"}},
	{"select", []string{"assigns", "tbl"}},
	{"filter", []string{"predicate", "tbl"}},
	{"derive", []string{"assigns", "tbl"}},
	{"aggregate", []string{"assigns", "tbl"}},
	{"sort", []string{"by", "tbl"}},
	{"take", []string{"range", "tbl"}},
	{"join", []string{"side", "with", "filter", "tbl"}},
	{"group", []string{"by", "pipeline", "tbl"}},
	{"window", []string{"rows", "range", "expanding", "rolling", "pipeline", "tbl"}},
	{"append", []string{"bottom", "top"}},
	{"loop", []string{"pipeline", "tbl"}},
	{"in", []string{"pattern", "value"}},
	{"tuple_every", []string{"fields"}},
	{"tuple_map", []string{"func", "fields"}},
	{"tuple_zip", []string{"a", "b"}},
	{"from_text", []string{"format", "text"}},
	{"prql_version", nil},
}

func paramsFor(names []string) []pl.Param {
	if len(names) == 0 {
		return nil
	}
	out := make([]pl.Param, len(names))
	for i, n := range names {
		out[i] = pl.Param{Name: n}
	}
	return out
}
