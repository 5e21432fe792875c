package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hlop3z/erdlab/internal/cli"
	"github.com/hlop3z/erdlab/internal/drift"
	"github.com/hlop3z/erdlab/internal/ui"
)

// historyEntryJSON is one entry of `erd history --json`.
type historyEntryJSON struct {
	Index         int       `json:"index"`
	Action        string    `json:"action"`
	RecordedAt    time.Time `json:"recordedAt"`
	Fingerprint   string    `json:"fingerprint"`
	Entities      int       `json:"entities"`
	Relationships int       `json:"relationships"`
	Current       bool      `json:"current"`
	Changes       string    `json:"changes"`
}

// historyCmd shows the undo history a script produced.
func historyCmd() *cobra.Command {
	var (
		asJSON bool
		browse bool
		sf     scriptFlags
	)

	cmd := &cobra.Command{
		Use:   "history <script.js>",
		Short: "Show the undo history a model script produced",
		Long: `Run a model script and list its history entries: the action that produced
each one, a fingerprint of the resulting model and what changed since the
previous entry. The current entry is marked with '*'.`,
		Example: `  erd history model.js
  erd history model.js --json
  erd history model.js --browse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && browse {
				return fmt.Errorf("--json and --browse cannot be combined")
			}

			r, err := setup(cmd, sf.overrides(cmd.Flags()))
			if err != nil {
				return err
			}
			eng, err := r.run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			steps, err := drift.Timeline(eng.History())
			if err != nil {
				return err
			}
			cursor := eng.Cursor()
			out := cmd.OutOrStdout()

			if asJSON {
				return writeHistoryJSON(out, steps, cursor)
			}

			items := ui.HistoryItems(steps, cursor, time.Now())
			if browse {
				return ui.BrowseHistory(items, out)
			}
			if err := ui.WriteHistory(items, out); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s, cursor at %d\n", cli.FormatCount(len(items), "entry", "entries"), cursor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&browse, "browse", false, "Open the interactive history browser")
	sf.register(cmd.Flags())

	return cmd
}

func writeHistoryJSON(out io.Writer, steps []drift.Step, cursor int) error {
	entries := make([]historyEntryJSON, 0, len(steps))
	for _, s := range steps {
		changes := "initial"
		if s.Change != nil {
			changes = drift.FormatSummary(s.Change)
		}
		entries = append(entries, historyEntryJSON{
			Index:         s.Index,
			Action:        s.Entry.Action,
			RecordedAt:    s.Entry.RecordedAt,
			Fingerprint:   s.Hash.Root,
			Entities:      len(s.Entry.State.Entities),
			Relationships: len(s.Entry.State.Relationships),
			Current:       s.Index == cursor,
			Changes:       changes,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
