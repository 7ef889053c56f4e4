package pl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pql-lang/pqlc/pkg/pl"
)

func TestExprJSON_Ident(t *testing.T) {
	e := &pl.Expr{Kind: pl.Ident{Path: []string{"db", "orders"}}, Alias: "o"}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got pl.Expr
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "o", got.Alias)
	ident, ok := got.Kind.(pl.Ident)
	require.True(t, ok)
	require.Equal(t, []string{"db", "orders"}, ident.Path)
}

func TestExprJSON_Literal(t *testing.T) {
	cases := []pl.Literal{
		pl.Int(42),
		pl.Float(3.5),
		pl.Bool(true),
		pl.String("hi"),
		pl.Null(),
	}
	for _, lit := range cases {
		e := pl.New(pl.LiteralExpr{Value: lit})
		data, err := json.Marshal(e)
		require.NoError(t, err)

		var got pl.Expr
		require.NoError(t, json.Unmarshal(data, &got))
		roundtripped, ok := got.Kind.(pl.LiteralExpr)
		require.True(t, ok)
		require.Equal(t, lit, roundtripped.Value)
	}
}

func TestExprJSON_BinaryExpr(t *testing.T) {
	e := pl.New(pl.BinaryExpr{
		Op:    pl.OpGt,
		Left:  pl.New(pl.Ident{Path: []string{"amount"}}),
		Right: pl.New(pl.LiteralExpr{Value: pl.Int(100)}),
	})

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got pl.Expr
	require.NoError(t, json.Unmarshal(data, &got))
	bin, ok := got.Kind.(pl.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, pl.OpGt, bin.Op)
	left, ok := bin.Left.Kind.(pl.Ident)
	require.True(t, ok)
	require.Equal(t, []string{"amount"}, left.Path)
}

func TestExprJSON_Pipeline(t *testing.T) {
	e := pl.New(pl.Pipeline{Exprs: []*pl.Expr{
		pl.New(pl.Ident{Path: []string{"orders"}}),
		pl.New(pl.FuncCall{Name: pl.New(pl.Ident{Path: []string{"filter"}})}),
	}})

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got pl.Expr
	require.NoError(t, json.Unmarshal(data, &got))
	pipe, ok := got.Kind.(pl.Pipeline)
	require.True(t, ok)
	require.Len(t, pipe.Exprs, 2)
}

func TestExprYAML_RoundTrip(t *testing.T) {
	e := pl.New(pl.TupleExpr{Fields: []*pl.Expr{
		(pl.New(pl.LiteralExpr{Value: pl.Int(1)})).WithAlias("one"),
	}})

	data, err := yaml.Marshal(e)
	require.NoError(t, err)

	var got pl.Expr
	require.NoError(t, yaml.Unmarshal(data, &got))
	tup, ok := got.Kind.(pl.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Fields, 1)
	require.Equal(t, "one", tup.Fields[0].Alias)
}
