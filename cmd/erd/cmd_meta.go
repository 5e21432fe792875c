package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/cli"
	"github.com/hlop3z/erdlab/internal/metadata"
)

// metaCmd exports model metadata as JSON.
func metaCmd() *cobra.Command {
	var (
		output string
		sf     scriptFlags
	)

	cmd := &cobra.Command{
		Use:   "meta <script.js>",
		Short: "Export model metadata as JSON",
		Long: `Run a model script and export the metadata of the final model as JSON.

The metadata includes:
- Tables with their columns and primary key columns
- Foreign keys implied by relationships
- Junction tables detected from their shape

External tools can use this metadata without evaluating the model script.`,
		Example: `  # Print metadata to stdout
  erd meta model.js

  # Write to a file
  erd meta model.js -o erd.meta.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := setup(cmd, sf.overrides(cmd.Flags()))
			if err != nil {
				return err
			}
			eng, err := r.run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			meta := metadata.Build(eng.Snapshot())
			out := cmd.OutOrStdout()

			if output == "" {
				data, err := meta.JSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			absPath, err := filepath.Abs(output)
			if err != nil {
				return alerr.Wrap(alerr.ErrFileWrite, err, "cannot resolve output path").WithFile(output, 0)
			}
			if err := meta.SaveToFile(absPath); err != nil {
				return err
			}
			fmt.Fprint(out, cli.FormatSuccess(fmt.Sprintf("Saved metadata for %s to %s",
				cli.FormatCount(len(meta.Tables), "table", "tables"), absPath)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	sf.register(cmd.Flags())

	return cmd
}
