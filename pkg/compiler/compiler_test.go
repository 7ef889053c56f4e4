package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/compiler"
	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// idOf is a small helper for building the *int fields pl.Expr uses to mark
// "the resolver has already assigned this id" (spec.md §3 "Invariants").
func idOf(v int) *int { return &v }

// ordersTable builds an already-resolved table-shaped Ident the way the
// resolver's TableDeclKind handling would (pkg/resolver/resolver.go's
// tableShapeOf): a relation Ty plus a Lineage naming each column and the
// distinct id it resolves to.
func ordersTable() *pl.Expr {
	path := ident.FromName("orders")
	fields := []pl.TupleField{
		{Kind: pl.FieldSingle, Name: "id"},
		{Kind: pl.FieldSingle, Name: "amount"},
		{Kind: pl.FieldSingle, Name: "status"},
	}
	ty := pl.RelationTy(fields)
	ty.Name = "orders"
	return &pl.Expr{
		Kind: pl.Ident{Path: []string{"orders"}},
		ID:   idOf(1),
		Ty:   &ty,
		Lineage: &pl.Lineage{
			Columns: []pl.LineageColumn{
				{Kind: pl.ColSingle, Name: "id", TargetID: 10},
				{Kind: pl.ColSingle, Name: "amount", TargetID: 11},
				{Kind: pl.ColSingle, Name: "status", TargetID: 12},
			},
			Inputs: []pl.LineageInput{{ID: 1, Name: "orders", Table: path}},
		},
	}
}

// ordersSchema is the Options.Tables declaration matching ordersTable's
// shape, for tests that resolve "orders" through the real resolver path
// (top-level Ident) rather than hand-building its Ty/Lineage.
func ordersSchema() map[string][]string {
	return map[string][]string{"orders": {"id", "amount", "status"}}
}

// column builds a bare reference to one of ordersTable's columns, as the
// resolver would have left it: an Ident whose TargetID points at the
// column's own id (not the table's), which is what lets pkg/rq's lowerer
// map it back to the right CId (pkg/rq/lower.go's columnOf bridge).
func column(name string, targetID int) *pl.Expr {
	return &pl.Expr{Kind: pl.Ident{Path: []string{name}}, ID: idOf(100 + targetID), TargetID: idOf(targetID)}
}

func TestCompile_FilterAndAggregate(t *testing.T) {
	amount := column("amount", 11)
	filter := &pl.Expr{
		Kind: pl.TransformCallExpr{Call: &pl.TransformCall{
			Kind: pl.FilterKind{Filter: &pl.Expr{
				Kind: pl.BinaryExpr{Op: pl.OpGt, Left: amount, Right: pl.New(pl.LiteralExpr{Value: pl.Int(100)})},
			}},
			Input: ordersTable(),
		}},
		ID: idOf(2),
	}
	total := (&pl.Expr{
		Kind: pl.RqOperatorExpr{Name: "std.sum", Args: []*pl.Expr{column("amount", 11)}},
		ID:   idOf(20),
	}).WithAlias("total")
	aggregate := &pl.Expr{
		Kind: pl.TransformCallExpr{Call: &pl.TransformCall{
			Kind:  pl.AggregateKind{Assigns: pl.New(pl.TupleExpr{Fields: []*pl.Expr{total}})},
			Input: filter,
		}},
		ID: idOf(3),
	}

	sql, err := compiler.Compile(aggregate, compiler.Options{Target: "generic", HideSignatureComment: true})
	require.NoError(t, err)
	require.Contains(t, sql, "SELECT")
	require.Contains(t, sql, "FROM")
	require.Contains(t, sql, "WHERE")
	require.Contains(t, sql, "SUM(")
	require.Contains(t, sql, "orders")
}

func TestCompile_NoTablesDeclaredAtAll(t *testing.T) {
	sql, err := compiler.Compile(&pl.Expr{Kind: pl.Ident{Path: []string{"orders"}}}, compiler.Options{Target: "generic"})
	// An undeclared table with no Tables map produces a resolver error,
	// not a panic: Compile always returns the accumulated Errors rather
	// than failing some other way (spec.md §7 "Propagation policy").
	require.Error(t, err)
	require.Empty(t, sql)
}

func TestCompile_UnknownTarget(t *testing.T) {
	opts := compiler.Options{Target: "not-a-real-dialect", Tables: ordersSchema()}
	_, err := compiler.Compile(ordersTable(), opts)
	require.Error(t, err)
}

func TestCompile_EveryRegisteredDialectCompilesTheSameTree(t *testing.T) {
	root := ordersTable()
	for _, target := range []string{"generic", "postgres", "mysql", "sqlite", "duckdb", "snowflake", "bigquery", "clickhouse", "mssql"} {
		t.Run(target, func(t *testing.T) {
			sql, err := compiler.Compile(root, compiler.Options{Target: target, HideSignatureComment: true, Tables: ordersSchema()})
			require.NoError(t, err)
			require.Contains(t, sql, "orders")
		})
	}
}

// TestCompile_DeclaredTableResolvesViaSchema exercises the resolver and
// module-tree fixes directly: a bare Ident with no Ty/Lineage pre-set at
// all (unlike ordersTable, which only exists to give the hand-built
// TransformCallExpr trees above a lineage-bearing leaf) must resolve
// purely from Options.Tables, through Module.Insert/Get (single-segment
// paths) and resolver.tableShapeOf.
func TestCompile_DeclaredTableResolvesViaSchema(t *testing.T) {
	root := &pl.Expr{Kind: pl.Ident{Path: []string{"widgets"}}}
	tables := map[string][]string{"widgets": {"id", "name"}}

	sql, err := compiler.Compile(root, compiler.Options{Target: "generic", HideSignatureComment: true, Tables: tables})
	require.NoError(t, err)
	require.Contains(t, sql, "widgets")
}

func TestCompile_UndeclaredTableIsAnError(t *testing.T) {
	root := &pl.Expr{Kind: pl.Ident{Path: []string{"widgets"}}}
	_, err := compiler.Compile(root, compiler.Options{Target: "generic", Tables: map[string][]string{"other": {"id"}}})
	require.Error(t, err)
}

func TestCompile_HideSignatureComment(t *testing.T) {
	root := ordersTable()
	opts := compiler.Options{Target: "generic", Tables: ordersSchema()}
	withBanner, err := compiler.Compile(root, opts)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(withBanner, "-- Generated by PQLC"))

	opts.HideSignatureComment = true
	withoutBanner, err := compiler.Compile(root, opts)
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(withoutBanner, "-- Generated by PQLC"))
}
