package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// specialFunctionDocs names and one-line-describes every special function
// pkg/resolver/special.go's dispatchSpecial recognizes (spec.md §4.2.1).
var specialFunctionDocs = map[string]string{
	"from":         "introduce a pipeline's source table",
	"select":       "project a tuple of columns",
	"filter":       "keep rows matching a predicate",
	"derive":       "add computed columns, preserving existing ones",
	"aggregate":    "collapse a partition into one row per group",
	"sort":         "order rows by one or more keys",
	"take":         "keep a row range, forcing a CTE split when not a prefix",
	"join":         "combine with another relation on a condition",
	"group":        "run a sub-pipeline once per partition",
	"window":       "run a sub-pipeline over a sliding frame",
	"append":       "stack another relation's rows beneath the input",
	"loop":         "repeatedly apply a sub-pipeline (compiles to a recursive CTE)",
	"in":           "range or set membership test",
	"tuple_every":  "AND together every column of a boolean tuple",
	"tuple_map":    "apply a function to every column of a tuple",
	"tuple_zip":    "pair up the columns of two tuples",
	"from_text":    "parse an inline CSV/JSON literal as a table",
	"prql_version": "the compiler's own version string, as a literal",
}

// NewDocCommand builds the `experimental doc` subcommand: list every
// special function pqlc's resolver recognizes, grounded on the teacher's
// internal/cli/commands/version.go's minimal single-purpose style.
func NewDocCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "experimental",
		Short: "Experimental, unstable subcommands",
	}
	root.AddCommand(&cobra.Command{
		Use:   "doc",
		Short: "List the special functions pqlc's resolver recognizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := make([]string, 0, len(specialFunctionDocs))
			for n := range specialFunctionDocs {
				names = append(names, n)
			}
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, n := range names {
				fmt.Fprintf(out, "%-14s %s\n", n, specialFunctionDocs[n])
			}
			return nil
		},
	})
	return root
}
