package commands

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/pkg/codegen"
	"github.com/pql-lang/pqlc/pkg/pl"
)

// NewDebugCommand builds the `debug` command group: annotate, lineage, ast,
// and json-schema, the SUPPLEMENTED FEATURES this CLI adds beyond the
// distilled spec's compile/parse/lex/fmt core.
func NewDebugCommand() *cobra.Command {
	debug := &cobra.Command{
		Use:   "debug",
		Short: "Inspect a PL tree: lineage-annotated source, lineage records, node counts, schema",
	}
	debug.AddCommand(newDebugAnnotateCommand())
	debug.AddCommand(newDebugLineageCommand())
	debug.AddCommand(newDebugASTCommand())
	debug.AddCommand(newDebugJSONSchemaCommand())
	return debug
}

// newDebugAnnotateCommand builds `debug annotate`: re-emit PQL source with
// a trailing `# [id:N col:...]` lineage comment after every pipeline step
// (SUPPLEMENTED FEATURES "debug annotate"), via pkg/codegen.Annotate.
func newDebugAnnotateCommand() *cobra.Command {
	var inFormat string
	cmd := &cobra.Command{
		Use:   "annotate <tree-file>",
		Short: "Re-emit PQL source with per-step lineage comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			out, err := codegen.Annotate(root)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	return cmd
}

// newDebugLineageCommand builds `debug lineage`: list every resolved
// pipeline step's Lineage record (output columns, and the inputs they may
// come from).
func newDebugLineageCommand() *cobra.Command {
	var inFormat string
	cmd := &cobra.Command{
		Use:   "lineage <tree-file>",
		Short: "Print the Lineage record of every resolved pipeline step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			walkSpans(root, func(kind string, e *pl.Expr) {
				if e.Lineage == nil {
					return
				}
				fmt.Fprintf(out, "%s:\n", kind)
				for _, c := range e.Lineage.Columns {
					if c.Kind == pl.ColAll {
						fmt.Fprintf(out, "  * (wildcard, input %d)\n", c.InputID)
						continue
					}
					fmt.Fprintf(out, "  %s -> id %d\n", c.Name, c.TargetID)
				}
				for _, in := range e.Lineage.Inputs {
					fmt.Fprintf(out, "  input %d: %s\n", in.ID, in.Name)
				}
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	return cmd
}

// newDebugASTCommand builds `debug ast`: a per-node-kind frequency table
// plus a humanize'd byte count of the tree's JSON encoding (SPEC_FULL.md
// DOMAIN STACK: "dustin/go-humanize | debug ast | human-readable
// byte/node-count sizes").
func newDebugASTCommand() *cobra.Command {
	var inFormat string
	cmd := &cobra.Command{
		Use:   "ast <tree-file>",
		Short: "Summarize a PL tree's node kinds and encoded size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}

			counts := map[string]int{}
			total := 0
			walkSpans(root, func(kind string, _ *pl.Expr) {
				counts[kind]++
				total++
			})

			encoded, err := jsonSize(root)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Node kind", "Count"})
			kinds := make([]string, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				t.AppendRow(table.Row{k, counts[k]})
			}
			t.AppendFooter(table.Row{"Total nodes", humanize.Comma(int64(total))})
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "encoded size: %s\n", humanize.Bytes(uint64(encoded)))
			return nil
		},
	}
	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	return cmd
}
