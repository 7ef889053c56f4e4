package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/pkg/compiler"
)

// NewVersionCommand reports the compiler version (SUPPLEMENTED FEATURES
// "prql_version / compiler-version constant"), grounded on the teacher's
// trivial internal/cli/commands/version.go.
func NewVersionCommand(cliVersion string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pqlc and compiler core versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pqlc %s (core %s)\n", cliVersion, compiler.Version)
			return nil
		},
	}
}
