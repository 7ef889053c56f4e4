package ident_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/ident"
)

func TestParseAndString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"single segment", "orders", []string{"orders"}},
		{"dotted path", "db.schema.orders", []string{"db", "schema", "orders"}},
		{"empty input yields empty ident", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := ident.Parse(tc.input)
			require.Equal(t, tc.want, id.Parts)
			require.Equal(t, tc.input, id.String())
		})
	}
}

func TestNameAndPath(t *testing.T) {
	id := ident.New("db", "schema", "orders")
	require.Equal(t, "orders", id.Name())
	require.Equal(t, []string{"db", "schema"}, id.Path())

	single := ident.FromName("orders")
	require.Equal(t, "orders", single.Name())
	require.Nil(t, single.Path())

	require.Equal(t, "", ident.Ident{}.Name())
}

func TestStartsWith(t *testing.T) {
	id := ident.New("db", "schema", "orders")
	require.True(t, id.StartsWith(ident.New("db", "schema")))
	require.True(t, id.StartsWith(ident.New("db")))
	require.True(t, id.StartsWith(ident.Ident{}))
	require.False(t, id.StartsWith(ident.New("db", "other")))
	require.False(t, id.StartsWith(ident.New("db", "schema", "orders", "extra")))
}

func TestPopFront(t *testing.T) {
	id := ident.New("a", "b", "c")
	head, rest := id.PopFront()
	require.Equal(t, "a", head)
	require.Equal(t, []string{"b", "c"}, rest.Parts)

	head, rest = ident.Ident{}.PopFront()
	require.Equal(t, "", head)
	require.True(t, rest.Empty())
}

func TestAppendAndConcat(t *testing.T) {
	id := ident.FromName("db").Append("orders")
	require.Equal(t, "db.orders", id.String())

	joined := ident.Concat(ident.New("db", "schema"), ident.New("orders", "id"))
	require.Equal(t, "db.schema.orders.id", joined.String())
}

func TestEqual(t *testing.T) {
	require.True(t, ident.New("a", "b").Equal(ident.New("a", "b")))
	require.False(t, ident.New("a", "b").Equal(ident.New("a", "c")))
	require.False(t, ident.New("a").Equal(ident.New("a", "b")))
}
