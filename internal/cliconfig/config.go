// Package cliconfig implements the CLI's layered configuration (SPEC_FULL.md
// §6 "EXTERNAL INTERFACES"): defaults, a project config file, environment
// variables, and flags, merged in that ascending precedence order.
//
// Grounded on the teacher's koanf-based loader,
// _examples/leapstack-labs-leapsql/internal/cli/config/loader.go: the same
// confmap -> file+yaml -> env -> posflag provider chain, simplified to the
// handful of settings a compiler CLI (rather than a project/database tool)
// actually needs.
package cliconfig

// Config is the fully-merged CLI configuration, unmarshaled by koanf from
// defaults/file/env/flags (in ascending precedence).
type Config struct {
	// Target is the SQL dialect name passed to pkg/target.Lookup.
	Target string `koanf:"target"`

	// Output is the format `parse` re-encodes a tree in when --out-format
	// is not given: "json" or "yaml"; "sql" (the default) makes `parse`
	// fall back to YAML. No other command reads it.
	Output string `koanf:"output"`

	// Color controls perrors.Render's ANSI output: "always", "auto", or
	// "never".
	Color string `koanf:"color"`

	// DebugLog is a file path that, if non-empty, has one JSON line
	// appended per compilation (SUPPLEMENTED FEATURES "--debug-log").
	// No HTML trace is written.
	DebugLog string `koanf:"debug_log"`

	// HideSignatureComment suppresses the leading "-- Generated by PQLC" line
	// (SUPPLEMENTED FEATURES "--hide-signature-comment").
	HideSignatureComment bool `koanf:"hide_signature_comment"`

	// Schema is a path to a YAML/JSON file mapping table name -> column
	// names, declaring every extern table `from` may reference. There is
	// no catalog to infer this from (spec.md §1 "Out of scope").
	Schema string `koanf:"schema"`
}

// Default configuration values, loaded first via confmap.Provider so every
// other layer can override a subset (DefaultOutput mirrors the teacher's
// config/types.go DefaultOutput = "auto" convention, adapted to this CLI's
// own vocabulary).
const (
	DefaultTarget = "generic"
	DefaultOutput = "sql"
	DefaultColor  = "auto"
)

// EnvPrefix is the environment-variable prefix koanf's env.Provider strips,
// renamed from the teacher's LEAPSQL_ convention (SPEC_FULL.md §6:
// "PQLC_TARGET, PQLC_DEBUG_LOG").
const EnvPrefix = "PQLC_"

// FileNames are the project config file names searched for in the current
// directory when --config is not given, in priority order.
var FileNames = []string{"pqlc.yaml", "pqlc.yml"}
