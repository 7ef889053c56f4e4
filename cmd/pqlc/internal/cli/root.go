// Package cli assembles the pqlc root command (SPEC_FULL.md §6).
//
// Grounded on the teacher's
// _examples/leapstack-labs-leapsql/internal/cli/root.go: a cobra root with a
// PersistentPreRunE that loads configuration once and stashes it (plus a
// logger) in the command context, a package-level Execute() entry point, and
// a completion subcommand built from cmd.Root().GenBashCompletion and its
// zsh/fish/powershell siblings.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pql-lang/pqlc/cmd/pqlc/internal/commands"
	"github.com/pql-lang/pqlc/internal/cliconfig"
)

var (
	cfgFile    string
	targetFlag string
)

// Version is the CLI's own version string, reported by --version and by the
// version subcommand (which also prints pkg/compiler.Version).
var Version = "0.1.0"

// NewRootCmd builds the pqlc root command and every registered subcommand.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pqlc",
		Short: "pqlc — Pipelined Query Language Compiler",
		Long: `pqlc compiles a resolved PL (Pipelined Language) tree into SQL for a
chosen target dialect. It reads its input as a serialized PL tree (YAML or
JSON) rather than PQL source text: parsing PQL source is out of this
binary's scope (see DESIGN.md, "CLI consumes serialized PL, not raw PQL
source").`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := cliconfig.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			ctx := cliconfig.WithConfig(cmd.Context(), cfg)

			level := slog.LevelWarn
			if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = cliconfig.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
				if used := cliconfig.GetConfigFileUsed(); used != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "using config file: %s\n", used)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pqlc.yaml)")
	root.PersistentFlags().StringVarP(&targetFlag, "target", "t", "", "target SQL dialect (see list-targets)")
	root.PersistentFlags().StringP("output", "o", "", "persisted-tree format: sql|json|yaml")
	root.PersistentFlags().String("color", "", "diagnostic color mode: always|auto|never")
	root.PersistentFlags().String("debug-log", "", "write a per-compilation debug trace to this path")
	root.PersistentFlags().Bool("hide-signature-comment", false, "suppress the leading '-- Generated by PQLC' comment")
	root.PersistentFlags().String("schema", "", "path to a YAML/JSON file mapping table name -> column names")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")

	_ = root.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return commands.TargetNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sql", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("color", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"always", "auto", "never"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(commands.NewVersionCommand(Version))
	root.AddCommand(commands.NewCompileCommand())
	root.AddCommand(commands.NewParseCommand())
	root.AddCommand(commands.NewLexCommand())
	root.AddCommand(commands.NewFmtCommand())
	root.AddCommand(commands.NewCollectCommand())
	root.AddCommand(commands.NewDebugCommand())
	root.AddCommand(commands.NewDocCommand())
	root.AddCommand(commands.NewWatchCommand())
	root.AddCommand(commands.NewListTargetsCommand())
	root.AddCommand(NewCompletionCommand())

	return root
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand builds the `shell-completion` subcommand (aliased as
// `completion`), grounded verbatim on the teacher's NewCompletionCommand.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "shell-completion [bash|zsh|fish|powershell]",
		Aliases:               []string{"completion"},
		Short:                 "Generate shell completion scripts",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
