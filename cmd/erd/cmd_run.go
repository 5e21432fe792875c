package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/cli"
	"github.com/hlop3z/erdlab/internal/modeler"
	"github.com/hlop3z/erdlab/internal/sqlgen"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 100 * time.Millisecond

// runCmd runs a model script and exports its SQL.
func runCmd() *cobra.Command {
	var (
		stdout bool
		watch  bool
		sf     scriptFlags
	)

	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Run a model script and write its SQL",
		Long: `Run a JavaScript model script against a fresh model and write the
CREATE TABLE statements of the final state to the output file.

When a script changes a relationship to many-to-many, erd asks whether to
replace it with a junction table. Use --junctions accept or decline to
answer every prompt up front.`,
		Example: `  # Write database.sql
  erd run model.js

  # Print to stdout instead
  erd run model.js --stdout

  # Rebuild on every save
  erd run model.js --watch --junctions accept`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := sf.overrides(cmd.Flags())
			flags.output = changedString(cmd.Flags(), "output")
			r, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			path := args[0]

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			export := func() error {
				eng, err := r.run(ctx, path)
				if err != nil {
					return err
				}
				return writeSQL(cmd.OutOrStdout(), eng, r.cfg.Output, stdout)
			}

			if !watch {
				return export()
			}

			errOut := cmd.ErrOrStderr()
			if err := export(); err != nil {
				fmt.Fprint(errOut, cli.FormatError(err))
			}
			fmt.Fprintln(errOut, cli.Dim("Watching "+path+" (Ctrl+C to stop)"))
			return watchFile(ctx, path, func() {
				if err := export(); err != nil {
					fmt.Fprint(errOut, cli.FormatError(err))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print SQL to stdout instead of writing a file")
	cmd.Flags().StringP("output", "o", DefaultOutput, "Output file path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run the script whenever it changes")
	sf.register(cmd.Flags())

	return cmd
}

// writeSQL writes the engine's SQL to path, or to out when toStdout is set.
func writeSQL(out io.Writer, eng *modeler.Engine, path string, toStdout bool) error {
	if toStdout {
		_, err := io.WriteString(out, eng.GenerateSQL())
		return err
	}

	s := eng.Snapshot()
	if err := sqlgen.WriteFile(path, s); err != nil {
		return err
	}
	fmt.Fprint(out, cli.FormatSuccess(fmt.Sprintf("Wrote %s (%s, %s)",
		path,
		cli.FormatCount(len(s.Entities), "table", "tables"),
		cli.FormatCount(len(s.Relationships), "relationship", "relationships"),
	)))
	return nil
}

// watchFile calls onChange after every write to path until ctx is done.
// The directory is watched so that editors replacing the file are seen.
func watchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return alerr.Wrap(alerr.ErrFileWatch, err, "failed to start file watcher")
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return alerr.Wrap(alerr.ErrFileRead, err, "cannot resolve path").WithFile(path, 0)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return alerr.Wrap(alerr.ErrFileWatch, err, "cannot watch directory").WithFile(path, 0)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case <-fire:
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return alerr.Wrap(alerr.ErrFileWatch, err, "file watcher failed").WithFile(path, 0)
		}
	}
}
