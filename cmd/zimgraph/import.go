package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/zimgraph"
)

func newImportCmd(g *globalOptions) *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "import ARCHIVE",
		Short: "Import every article of an archive and save the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := g.sessionStore(ctx)
			if err != nil {
				return err
			}

			var extra []zimgraph.Option
			if progress {
				extra = append(extra, zimgraph.WithOnBatch(progressPrinter(cmd.ErrOrStderr())))
			}
			graph, closeFn, err := g.open(ctx, args[0], false, extra...)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := graph.Import(ctx)
			if err != nil {
				return err
			}
			m, err := graph.Save(ctx, store)
			if err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			if g.json {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"imported %s pages from %s entries in %s (%d skipped, %d failed, %d unsupported)\nsaved %s of session data\n",
				humanize.Comma(int64(stats.Pages)), humanize.Comma(int64(stats.Entries)), stats.Elapsed.Round(time.Millisecond),
				stats.Skipped, stats.Failed, stats.Unsupported,
				humanize.IBytes(uint64(m.Vocabulary.Size+m.Graph.Size)))
			return err
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "report progress after every batch")
	return cmd
}

func progressPrinter(w io.Writer) func(zimgraph.ImportStats) {
	return func(s zimgraph.ImportStats) {
		fmt.Fprintf(w, "\rbatch %d: %s entries, %s pages", s.Batches,
			humanize.Comma(int64(s.Entries)), humanize.Comma(int64(s.Pages)))
	}
}
