package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/blobstore"
)

func newExpandCmd(g *globalOptions) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "expand ARCHIVE SEED...",
		Short: "Grow the session around seed articles",
		Long: `Fetches the seed articles and then, for each step, every article linked
from the session that is not in it yet. An existing session is extended;
otherwise a new one is created.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := g.sessionStore(ctx)
			if err != nil {
				return err
			}
			graph, closeFn, err := g.open(ctx, args[0], false)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := graph.Load(ctx, store); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
				return fmt.Errorf("load session: %w", err)
			}

			stats, err := graph.Expand(ctx, args[1:], steps)
			if err != nil {
				return err
			}
			if _, err := graph.Save(ctx, store); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			if g.json {
				return writeJSON(cmd.OutOrStdout(), struct {
					zimgraph.ExpandStats
					Pages int
				}{stats, graph.Len()})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d steps, %d pages added, %d unresolved, %d pages in session\n",
				stats.Steps, stats.Added, stats.Unresolved, graph.Len())
			return err
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of expansion rounds")
	return cmd
}
