package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/module"
	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/resolver"
)

func TestFold_Literal(t *testing.T) {
	e := pl.New(pl.LiteralExpr{Value: pl.Int(42)})
	r := resolver.New(module.New())

	got, err := r.Fold(e)
	require.NoError(t, err)
	require.True(t, got.HasID())
	require.Equal(t, pl.TyInt(), *got.Ty)
}

func TestFold_Ident_UnknownProducesNotFoundError(t *testing.T) {
	r := resolver.New(module.New())
	_, err := r.Fold(&pl.Expr{Kind: pl.Ident{Path: []string{"orders"}}})
	require.Error(t, err)
}

// TestFold_Ident_ResolvesTableDecl exercises foldIdent's single-match
// branch directly: a TableDeclKind inserted at the root must come back as
// a relation-shaped Expr whose Lineage names every column, proving
// Module.Insert/Get (single-segment paths) and tableShapeOf all line up.
func TestFold_Ident_ResolvesTableDecl(t *testing.T) {
	root := module.New()
	root.Insert(ident.FromName("orders"), module.TableDeclKind{Columns: []string{"id", "amount"}})
	r := resolver.New(root)

	got, err := r.Fold(&pl.Expr{Kind: pl.Ident{Path: []string{"orders"}}})
	require.NoError(t, err)
	require.True(t, got.HasID())
	require.NotNil(t, got.Ty)
	require.NotNil(t, got.Lineage)
	require.Len(t, got.Lineage.Columns, 2)
	require.Equal(t, "id", got.Lineage.Columns[0].Name)
	require.Equal(t, "amount", got.Lineage.Columns[1].Name)
	require.Equal(t, "orders", got.Lineage.Inputs[0].Name)
}

func TestFold_Ident_AmbiguousAcrossRedirects(t *testing.T) {
	root := module.New()
	root.Insert(ident.New("a", "orders"), module.TableDeclKind{Columns: []string{"id"}})
	root.Insert(ident.New("b", "orders"), module.TableDeclKind{Columns: []string{"id"}})
	root.Redirects = []ident.Ident{ident.FromName("a"), ident.FromName("b")}

	r := resolver.New(root)
	_, err := r.Fold(&pl.Expr{Kind: pl.Ident{Path: []string{"orders"}}})
	require.Error(t, err)
}

func TestFold_Binary_ComparisonIsBool(t *testing.T) {
	left := pl.New(pl.LiteralExpr{Value: pl.Int(1)})
	right := pl.New(pl.LiteralExpr{Value: pl.Int(2)})
	e := pl.New(pl.BinaryExpr{Op: pl.OpGt, Left: left, Right: right})

	r := resolver.New(module.New())
	got, err := r.Fold(e)
	require.NoError(t, err)
	require.Equal(t, pl.TyBool(), *got.Ty)
}

func TestFold_Tuple_FieldNamesComeFromAliases(t *testing.T) {
	total := (pl.New(pl.LiteralExpr{Value: pl.Int(7)})).WithAlias("total")
	e := pl.New(pl.TupleExpr{Fields: []*pl.Expr{total}})

	r := resolver.New(module.New())
	got, err := r.Fold(e)
	require.NoError(t, err)
	tup, ok := got.Ty.Kind.(pl.TyTuple)
	require.True(t, ok)
	require.Len(t, tup.Fields, 1)
	require.Equal(t, "total", tup.Fields[0].Name)
}
