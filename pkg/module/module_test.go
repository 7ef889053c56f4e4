package module_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/ident"
	"github.com/pql-lang/pqlc/pkg/module"
)

func TestInsertAndGet(t *testing.T) {
	root := module.New()
	root.Insert(ident.New("db", "orders"), module.TableDeclKind{Columns: []string{"id", "amount"}})

	decl, ok := root.Get(ident.New("db", "orders"))
	require.True(t, ok)
	table, ok := decl.Kind.(module.TableDeclKind)
	require.True(t, ok)
	require.Equal(t, []string{"id", "amount"}, table.Columns)

	_, ok = root.Get(ident.New("db", "missing"))
	require.False(t, ok)
}

func TestInsertReplacesTerminalSegment(t *testing.T) {
	root := module.New()
	root.Insert(ident.FromName("orders"), module.TableDeclKind{Columns: []string{"id"}})
	root.Insert(ident.FromName("orders"), module.TableDeclKind{Columns: []string{"id", "amount"}})

	decl, ok := root.Get(ident.FromName("orders"))
	require.True(t, ok)
	table := decl.Kind.(module.TableDeclKind)
	require.Equal(t, []string{"id", "amount"}, table.Columns)
}

func TestLookup_ViaRedirect(t *testing.T) {
	root := module.New()
	root.Insert(ident.New("db", "orders"), module.TableDeclKind{Columns: []string{"id"}})

	query := module.New()
	query.Redirects = []ident.Ident{ident.FromName("db")}

	matches := query.Lookup(root, ident.FromName("orders"))
	require.Equal(t, []ident.Ident{ident.New("db", "orders")}, matches)
}

func TestLookup_AmbiguousAcrossRedirects(t *testing.T) {
	root := module.New()
	root.Insert(ident.New("a", "orders"), module.TableDeclKind{Columns: []string{"id"}})
	root.Insert(ident.New("b", "orders"), module.TableDeclKind{Columns: []string{"id"}})

	query := module.New()
	query.Redirects = []ident.Ident{ident.FromName("a"), ident.FromName("b")}

	matches := query.Lookup(root, ident.FromName("orders"))
	require.Len(t, matches, 2)
}

func TestLookup_Unknown(t *testing.T) {
	root := module.New()
	query := module.New()
	require.Empty(t, query.Lookup(root, ident.FromName("nope")))
}

func TestShadowAndUnshadow(t *testing.T) {
	m := module.New()
	orig := m.Insert(ident.FromName("x"), module.TableDeclKind{Columns: []string{"a"}})

	prev := m.Shadow("x")
	require.Same(t, orig, prev)
	_, ok := m.Get(ident.FromName("x"))
	require.False(t, ok, "the shadow placeholder has no kind, so Get reports the name as absent, but Names still holds the placeholder")
	require.Contains(t, m.Names, "x")

	m.Unshadow("x", prev)
	decl, ok := m.Get(ident.FromName("x"))
	require.True(t, ok)
	require.Equal(t, orig, decl)
}

func TestUnshadow_NilPrevRemovesPlaceholder(t *testing.T) {
	m := module.New()
	m.Shadow("x")
	require.Contains(t, m.Names, "x")
	m.Unshadow("x", nil)
	require.NotContains(t, m.Names, "x")
}

func TestInfer(t *testing.T) {
	m := module.New()
	template := &module.Decl{Kind: module.TableDeclKind{Columns: []string{"inferred"}}}
	m.Names[module.NSInfer] = &module.Decl{Kind: module.InferDeclKind{Template: template}}

	decl, ok := m.Infer("widget")
	require.True(t, ok)
	table := decl.Kind.(module.TableDeclKind)
	require.Equal(t, []string{"inferred"}, table.Columns)

	got, ok := m.Get(ident.FromName("widget"))
	require.True(t, ok)
	require.Equal(t, decl, got)
}

func TestInfer_NoPlaceholder(t *testing.T) {
	m := module.New()
	_, ok := m.Infer("widget")
	require.False(t, ok)
}

func TestStackPushPop(t *testing.T) {
	m := module.New()
	frame1 := m.StackPush(module.NSParam)
	frame1.Insert(ident.FromName("x"), module.ColumnDeclKind{ExprID: 1})

	frame2 := m.StackPush(module.NSParam)
	frame2.Insert(ident.FromName("y"), module.ColumnDeclKind{ExprID: 2})

	decl, ok := m.Get(ident.New(module.NSParam, "y"))
	require.True(t, ok)
	require.Equal(t, 2, decl.Kind.(module.ColumnDeclKind).ExprID)

	m.StackPop(module.NSParam)
	_, ok = m.Get(ident.New(module.NSParam, "y"))
	require.False(t, ok, "popping the top frame should hide its declarations")

	decl, ok = m.Get(ident.New(module.NSParam, "x"))
	require.True(t, ok)
	require.Equal(t, 1, decl.Kind.(module.ColumnDeclKind).ExprID)
}

func TestDeclString(t *testing.T) {
	require.Equal(t, "<nil>", (*module.Decl)(nil).String())

	d := &module.Decl{Kind: module.TableDeclKind{Columns: []string{"id", "amount"}}}
	require.Contains(t, d.String(), "table(")

	d = &module.Decl{Kind: module.ColumnDeclKind{ExprID: 7}}
	require.Equal(t, "column(#7)", d.String())
}
