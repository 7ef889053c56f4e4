package target_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/target"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"generic", "ansi", "postgres", "duckdb", "snowflake", "bigquery", "mysql", "clickhouse", "mssql", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			d, err := target.Lookup(name)
			require.NoError(t, err)
			require.Equal(t, name, d.Name)
		})
	}

	_, err := target.Lookup("not-a-dialect")
	require.Error(t, err)
}

func TestNames_IncludesEveryRegisteredDialect(t *testing.T) {
	names := target.Names()
	require.Len(t, names, 10)
	require.Contains(t, names, "postgres")
	require.Contains(t, names, "mssql")
}

func TestQuoteIdentifier(t *testing.T) {
	postgres, err := target.Lookup("postgres")
	require.NoError(t, err)
	require.Equal(t, `"orders"`, postgres.QuoteIdentifier("orders"))

	mysql, err := target.Lookup("mysql")
	require.NoError(t, err)
	require.Equal(t, "`orders`", mysql.QuoteIdentifier("orders"))

	mssql, err := target.Lookup("mssql")
	require.NoError(t, err)
	require.Equal(t, "[orders]", mssql.QuoteIdentifier("orders"))
}

func TestQuoteIdentifier_EscapesEmbeddedQuoteChar(t *testing.T) {
	postgres, err := target.Lookup("postgres")
	require.NoError(t, err)
	require.Equal(t, `"a""b"`, postgres.QuoteIdentifier(`a"b`))
}

func TestNeedsQuoting(t *testing.T) {
	postgres, err := target.Lookup("postgres")
	require.NoError(t, err)

	cases := []struct {
		name string
		word string
		want bool
	}{
		{"plain identifier", "orders", false},
		{"reserved word", "select", true},
		{"postgres-specific reserved word", "returning", true},
		{"leading digit", "1orders", true},
		{"contains a space", "order id", true},
		{"empty string", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, postgres.NeedsQuoting(tc.word))
		})
	}
}

func TestIsReservedWord_FallsBackToParent(t *testing.T) {
	// "returning" is added only on Postgres, but DuckDB extends Postgres
	// and defines no reserved set of its own, so the lookup must walk up
	// the parent chain.
	duckdb, err := target.Lookup("duckdb")
	require.NoError(t, err)
	require.True(t, duckdb.IsReservedWord("returning"))
	require.True(t, duckdb.IsReservedWord("RETURNING"), "reserved-word lookup is case-insensitive")
	require.False(t, duckdb.IsReservedWord("amount"))
}

func TestUseTop(t *testing.T) {
	mssql, err := target.Lookup("mssql")
	require.NoError(t, err)
	require.True(t, mssql.UseTop())

	postgres, err := target.Lookup("postgres")
	require.NoError(t, err)
	require.False(t, postgres.UseTop())
}
