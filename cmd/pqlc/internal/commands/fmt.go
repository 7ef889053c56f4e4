package commands

import (
	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/pkg/codegen"
)

// NewFmtCommand builds the `fmt` subcommand: pretty-print a PL tree back
// into PQL source text via pkg/codegen (C12).
func NewFmtCommand() *cobra.Command {
	var inFormat, outPath string

	cmd := &cobra.Command{
		Use:   "fmt <tree-file>",
		Short: "Pretty-print a PL tree as PQL source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			src, err := codegen.Format(root)
			if err != nil {
				return err
			}
			return writeText(src, outPath)
		},
	}

	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write the PQL source here instead of stdout")
	return cmd
}
