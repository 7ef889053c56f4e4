package commands

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/pkg/pl"
	"github.com/pql-lang/pqlc/pkg/rq"
)

// jsonSize returns the byte length of root's JSON encoding, used by
// `debug ast` to report a human-readable tree size.
func jsonSize(root *pl.Expr) (int, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// newDebugJSONSchemaCommand builds `debug json-schema --schema-type
// {pl,rq,lineage}`: a JSON Schema-shaped dump of one of pqlc's own Go
// types, produced by reflection rather than an external JSON-schema
// library (none of the teacher's dependencies cover this; see the
// `debug json-schema` entry in DESIGN.md).
func newDebugJSONSchemaCommand() *cobra.Command {
	var schemaType, outPath string

	cmd := &cobra.Command{
		Use:   "json-schema",
		Short: "Dump a JSON Schema-shaped description of pqlc's tree types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var root any
			switch schemaType {
			case "pl":
				root = pl.Expr{}
			case "rq":
				root = rq.RelationalQuery{}
			case "lineage":
				root = pl.Lineage{}
			default:
				return fmt.Errorf("debug json-schema: unknown --schema-type %q (want pl, rq, or lineage)", schemaType)
			}

			schema := schemaFor(reflect.TypeOf(root), map[reflect.Type]bool{})
			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			return writeBytes(append(data, '\n'), outPath)
		},
	}

	cmd.Flags().StringVar(&schemaType, "schema-type", "pl", "which tree to describe: pl|rq|lineage")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write the schema here instead of stdout")
	_ = cmd.RegisterFlagCompletionFunc("schema-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"pl", "rq", "lineage"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// schemaFor walks a Go type with reflection and builds a map shaped like a
// minimal JSON Schema: {"type": ..., "properties": {...}} for structs,
// {"type": "array", "items": ...} for slices, and a bare {"type": ...} for
// scalars. seen breaks cycles in self-referential types (*Expr holding
// []*Expr fields, etc.) by emitting a $ref-style marker instead of
// recursing forever.
func schemaFor(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		if seen[t] {
			return map[string]any{"$ref": t.Name()}
		}
		seen = cloneSeen(seen)
		seen[t] = true

		props := map[string]any{}
		var required []string
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonFieldName(f)
			if name == "-" {
				continue
			}
			props[name] = schemaFor(f.Type, seen)
			required = append(required, name)
		}
		sort.Strings(required)
		return map[string]any{
			"type":       "object",
			"title":      t.Name(),
			"properties": props,
			"required":   required,
		}

	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": schemaFor(t.Elem(), seen),
		}

	case reflect.Map:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": schemaFor(t.Elem(), seen),
		}

	case reflect.Interface:
		return map[string]any{"type": "object", "description": t.Name() + " (sealed interface; variant-specific shape)"}

	case reflect.String:
		return map[string]any{"type": "string"}

	case reflect.Bool:
		return map[string]any{"type": "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}

	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}

	default:
		return map[string]any{"type": "object", "description": t.String()}
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		tag = f.Tag.Get("koanf")
	}
	if tag == "" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}

func cloneSeen(seen map[reflect.Type]bool) map[reflect.Type]bool {
	out := make(map[reflect.Type]bool, len(seen)+1)
	for k, v := range seen {
		out[k] = v
	}
	return out
}
