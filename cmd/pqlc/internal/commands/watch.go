package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pql-lang/pqlc/internal/cliconfig"
	"github.com/pql-lang/pqlc/pkg/compiler"
)

// debounce coalesces the burst of fsnotify events a single save often
// produces into one recompile.
const debounce = 150 * time.Millisecond

// NewWatchCommand builds the `watch` subcommand: recompile a tree file (or
// every tree file in a directory) whenever it changes on disk.
//
// Grounded on SPEC_FULL.md §6 (fsnotify-driven recompiles of tree files)
// and §5's
// errgroup-coordinated concurrent-compilation requirement for fanning out
// a directory's files on every triggering event.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Recompile a tree file or directory whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			return runWatch(cmd, args[0], cfg)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command, path string, cfg *cliconfig.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	recompile := func(changed string) {
		if !isTreeFile(changed) {
			return
		}
		files, err := treeFilesIn(filepath.Dir(changed))
		if err != nil || len(files) == 0 {
			files = []string{changed}
		}

		g, ctx := errgroup.WithContext(context.Background())
		_ = ctx
		for _, f := range files {
			f := f
			g.Go(func() error {
				root, err := readTree(f, "")
				if err != nil {
					fmt.Fprintf(errOut, "%s: %v\n", f, err)
					return nil
				}
				tables, err := loadTables(cfg.Schema)
				if err != nil {
					fmt.Fprintf(errOut, "%s: %v\n", f, err)
					return nil
				}
				sql, err := compiler.Compile(root, compiler.Options{
					Target:               cfg.Target,
					HideSignatureComment: cfg.HideSignatureComment,
					Tables:               tables,
				})
				appendDebugLog(cfg.DebugLog, f, cfg.Target, err)
				if err != nil {
					fmt.Fprintf(errOut, "%s\n", renderCompileError(err, "", cfg.Color))
					return nil
				}
				fmt.Fprintf(out, "-- %s\n%s\n", f, sql)
				return nil
			})
		}
		_ = g.Wait()
	}

	var timer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			changed := event.Name
			timer = time.AfterFunc(debounce, func() { recompile(changed) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch: %v\n", err)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

func isTreeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
