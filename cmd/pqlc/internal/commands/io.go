// Package commands implements one pqlc subcommand per file (SPEC_FULL.md §6
// "cmd/pqlc/internal/commands/*.go"), grounded file-for-file on
// _examples/leapstack-labs-leapsql/internal/cli/commands's per-command
// layout (version.go, list.go).
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/target"
)

// TargetNames exposes pkg/target.Names() to the root command's flag
// completion function without the root package importing pkg/target
// directly for just that one call.
func TargetNames() []string { return target.Names() }

// treeFormat classifies a PL-tree input/output file by extension, defaulting
// to YAML (the teacher's own config files are YAML-first).
func treeFormat(path, override string) string {
	if override != "" {
		return override
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// readTree reads and decodes a serialized PL tree from path (SPEC_FULL.md
// §6 "Persisted formats": YAML via gopkg.in/yaml.v3, JSON via
// encoding/json, both over pkg/pl's codec.go MarshalJSON/UnmarshalJSON and
// MarshalYAML/UnmarshalYAML).
func readTree(path, format string) (*pl.Expr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var root pl.Expr
	switch treeFormat(path, format) {
	case "json":
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decoding %s as JSON: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decoding %s as YAML: %w", path, err)
		}
	}
	return &root, nil
}

// writeTree encodes root as either JSON or YAML and writes it to path, or
// to stdout when path is "" or "-".
func writeTree(root *pl.Expr, format, path string) error {
	var out []byte
	var err error
	switch format {
	case "json":
		out, err = json.MarshalIndent(root, "", "  ")
	default:
		out, err = yaml.Marshal(root)
	}
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return writeBytes(out, path)
}

func writeBytes(data []byte, path string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		if err == nil && (len(data) == 0 || data[len(data)-1] != '\n') {
			_, err = os.Stdout.Write([]byte("\n"))
		}
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeText(text, path string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return writeBytes([]byte(text), path)
}

// loadTables reads a YAML/JSON file mapping table name -> column names
// (the --schema flag), declaring the extern tables `from` may reference
// (SPEC_FULL.md §6, pkg/compiler.Options.Tables). An empty path is not an
// error: it yields no declared tables, matching pqlc's behavior before
// --schema existed.
func loadTables(path string) (map[string][]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	tables := make(map[string][]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("decoding schema %s as JSON: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("decoding schema %s as YAML: %w", path, err)
		}
	}
	return tables, nil
}
