package commands

import (
	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/internal/cliconfig"
)

// NewParseCommand builds the `parse` subcommand: decode a serialized PL
// tree and re-encode it in the requested format, validating it along the
// way. Since parsing PQL source text is out of scope (pkg/token's doc
// comment), `parse`'s input is already a PL tree — this command exists so
// the CLI surface the teacher's `compile`/`parse`/`lex` trio implies is
// complete, and so a tree can be round-tripped between YAML and JSON.
func NewParseCommand() *cobra.Command {
	var inFormat, outFormat, outPath string

	cmd := &cobra.Command{
		Use:   "parse <tree-file>",
		Short: "Validate a PL tree and re-encode it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			root, err := readTree(args[0], inFormat)
			if err != nil {
				return err
			}
			format := outFormat
			if format == "" {
				format = cfg.Output
			}
			if format == "sql" {
				format = "yaml"
			}
			return writeTree(root, format, outPath)
		},
	}

	cmd.Flags().StringVar(&inFormat, "in-format", "", "input tree format override: json|yaml")
	cmd.Flags().StringVar(&outFormat, "out-format", "", "output tree format: json|yaml (default: --output, sql falls back to yaml)")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write the re-encoded tree here instead of stdout")
	return cmd
}
