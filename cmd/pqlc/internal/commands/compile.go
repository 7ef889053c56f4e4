package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/internal/cliconfig"
	"github.com/pql-lang/pqlc/pkg/compiler"
)

// NewCompileCommand builds the `compile` subcommand: read a serialized PL
// tree, run the full pkg/compiler.Compile pipeline, and emit SQL.
//
// Grounded on the teacher's internal/cli/commands/render.go-style
// read-input/run/write-output shape, adapted from SQL-model rendering to
// PL-to-SQL compilation.
func NewCompileCommand() *cobra.Command {
	var inFormat, outPath string

	cmd := &cobra.Command{
		Use:   "compile <tree-file>",
		Short: "Compile a resolved PL tree into SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cliconfig.FromContext(cmd.Context())

			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			tables, err := loadTables(cfg.Schema)
			if err != nil {
				return err
			}

			sql, err := compiler.Compile(root, compiler.Options{
				Target:               cfg.Target,
				HideSignatureComment: cfg.HideSignatureComment,
				Tables:               tables,
			})
			appendDebugLog(cfg.DebugLog, args[0], cfg.Target, err)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), renderCompileError(err, "", cfg.Color))
				return fmt.Errorf("compile: %s failed", args[0])
			}
			return writeText(sql, outPath)
		},
	}

	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write SQL here instead of stdout")
	return cmd
}
