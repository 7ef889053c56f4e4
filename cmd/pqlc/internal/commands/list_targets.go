package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pql-lang/pqlc/pkg/target"
)

// NewListTargetsCommand builds the `list-targets` subcommand: a
// jedib0t/go-pretty table of every registered pkg/target.Dialect and its
// emission capability flags (SPEC_FULL.md §6: "list-targets renders with
// jedib0t/go-pretty/v6/table").
func NewListTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-targets",
		Short: "List the SQL dialects pqlc can emit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := target.Names()
			sort.Strings(names)

			titleCase := cases.Title(language.English)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Target", "Distinct On", "Except All", "Intersect All", "Recursive CTEs"})
			for _, name := range names {
				d, err := target.Lookup(name)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{
					titleCase.String(d.Name),
					yesNo(d.SupportsDistinctOn),
					yesNo(d.SupportsExceptAll),
					yesNo(d.SupportsIntersectAll),
					yesNo(d.SupportsRecursiveCTEs),
				})
			}
			t.Render()
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
