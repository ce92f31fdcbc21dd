package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/zimgraph/export/sqlite"
)

func newExportCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export ARCHIVE OUT.db",
		Short: "Export the session graph to a SQLite database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, closeFn, err := g.open(ctx, args[0], true)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := sqlite.Export(ctx, args[1], graph.Vocabulary(), graph.Pages())
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d articles, %d pages, %d links to %s\n",
				stats.Articles, stats.Pages, stats.Links, args[1])
			return err
		},
	}
}
