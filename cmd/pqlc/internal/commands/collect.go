package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pql-lang/pqlc/internal/cliconfig"
	"github.com/pql-lang/pqlc/pkg/compiler"
)

// NewCollectCommand builds the `collect` subcommand: compile every tree
// file in a directory and concatenate the results. Each file gets its own
// Resolver/AnchorContext/id-generator set (SPEC_FULL.md §5: "a caller that
// wishes to compile multiple queries concurrently must instantiate fully
// independent state per task"), so the fan-out below uses
// golang.org/x/sync/errgroup with no shared compiler state between
// goroutines.
func NewCollectCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "collect <dir>",
		Short: "Compile every PL tree file in a directory, concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cliconfig.FromContext(cmd.Context())

			files, err := treeFilesIn(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("collect: no .yaml/.yml/.json tree files found under %s", args[0])
			}
			tables, err := loadTables(cfg.Schema)
			if err != nil {
				return err
			}

			results := make([]string, len(files))
			g, _ := errgroup.WithContext(context.Background())
			for i, f := range files {
				i, f := i, f
				g.Go(func() error {
					root, err := readTree(f, "")
					if err != nil {
						return fmt.Errorf("%s: %w", f, err)
					}
					sql, err := compiler.Compile(root, compiler.Options{
						Target:               cfg.Target,
						HideSignatureComment: cfg.HideSignatureComment,
						Tables:               tables,
					})
					if err != nil {
						return fmt.Errorf("%s: %s", f, renderCompileError(err, "", cfg.Color))
					}
					results[i] = fmt.Sprintf("-- %s\n%s", filepath.Base(f), sql)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return writeText(strings.Join(results, "\n"), outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write the combined SQL here instead of stdout")
	return cmd
}

// treeFilesIn returns every .yaml/.yml/.json file directly under dir,
// sorted for deterministic output ordering.
func treeFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
