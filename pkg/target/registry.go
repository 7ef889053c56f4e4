package target

import "fmt"

var commonReserved = []string{
	"select", "from", "where", "group", "by", "order", "having", "join",
	"left", "right", "full", "inner", "outer", "on", "as", "distinct",
	"union", "all", "except", "intersect", "with", "recursive", "case",
	"when", "then", "else", "end", "and", "or", "not", "null", "limit",
	"offset", "table", "insert", "update", "delete", "create", "drop",
}

// Generic is the fallback dialect: standard LIMIT/OFFSET, CTEs, no
// dialect-specific set-op qualifiers.
var Generic = New("generic").
	ReservedWords(commonReserved...).
	SetOps(false, false, true).
	CTEs(true, true).
	Build()

// Ansi is plain ANSI SQL: stricter than Generic about dialect-specific
// extensions, used as the parent for most concrete dialects.
var Ansi = New("ansi").
	Extends(Generic).
	SetOps(true, true, true).
	CTEs(true, true).
	Build()

// Postgres supports DISTINCT ON, full set-op ALL qualifiers, and
// recursive CTEs.
var Postgres = New("postgres").
	Extends(Ansi).
	DistinctOn(true).
	SetOps(true, true, true).
	CTEs(true, true).
	ReservedWords("returning", "ilike").
	Build()

// DuckDB mirrors Postgres's SQL surface closely.
var DuckDB = New("duckdb").
	Extends(Postgres).
	Build()

// Snowflake uses double-quoted identifiers and lacks EXCEPT/INTERSECT
// ALL.
var Snowflake = New("snowflake").
	Extends(Ansi).
	SetOps(false, false, true).
	Build()

// BigQuery uses backtick-quoted identifiers and no EXCEPT/INTERSECT ALL.
var BigQuery = New("bigquery").
	Extends(Ansi).
	Identifiers("`", "`", "\\`").
	SetOps(false, false, false).
	CTEs(true, false).
	Build()

// MySQL uses backtick identifiers, LIMIT without FETCH FIRST, and has no
// EXCEPT/INTERSECT before 8.0.31 (treated conservatively as unsupported).
var MySQL = New("mysql").
	Extends(Generic).
	Identifiers("`", "`", "``").
	SetOps(false, false, false).
	StarsInGroupBy(false).
	Build()

// ClickHouse mostly follows ANSI conventions with backtick identifiers.
var ClickHouse = New("clickhouse").
	Extends(Ansi).
	Identifiers("`", "`", "\\`").
	Build()

// MSSQL uses bracket identifiers and TOP instead of LIMIT.
var MSSQL = New("mssql").
	Extends(Ansi).
	Identifiers("[", "]", "]]").
	TopStyle(TopStyleTop).
	CTEs(true, true).
	Build()

// SQLite has no native DISTINCT ON and no INTERSECT/EXCEPT ALL.
var SQLite = New("sqlite").
	Extends(Generic).
	SetOps(false, false, true).
	Build()

// registry maps target names to Dialect, exposed through Lookup and used
// by the CLI's `list-targets` command (spec.md §6 "CLI surface").
var registry = map[string]*Dialect{
	"generic":    Generic,
	"ansi":       Ansi,
	"postgres":   Postgres,
	"duckdb":     DuckDB,
	"snowflake":  Snowflake,
	"bigquery":   BigQuery,
	"mysql":      MySQL,
	"clickhouse": ClickHouse,
	"mssql":      MSSQL,
	"sqlite":     SQLite,
}

// Lookup resolves a dialect by its CLI-facing name.
func Lookup(name string) (*Dialect, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("target: unknown dialect %q", name)
	}
	return d, nil
}

// Names returns every registered dialect name, for `list-targets`.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
