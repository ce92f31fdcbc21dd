package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/model"
)

func newClosestCmd(g *globalOptions) *cobra.Command {
	var (
		count            int
		minDist, maxDist float64
	)
	cmd := &cobra.Command{
		Use:   "closest ARCHIVE [START]",
		Short: "Sample articles at a given distance from START",
		Long: `Runs a weighted search from START and prints a random sample of the
articles whose distance lies between --min and --max. Without START a
random article with links is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, closeFn, err := g.open(ctx, args[0], true)
			if err != nil {
				return err
			}
			defer closeFn()

			var start model.Key
			if len(args) == 2 {
				start, err = lookup(graph, args[1])
			} else {
				start, err = graph.RandomStart(ctx)
			}
			if err != nil {
				return err
			}

			infos, err := graph.ClosestTitles(ctx, start, count, minDist, maxDist)
			if err != nil {
				return err
			}
			paths, err := resolvePaths(graph, infos)
			if err != nil {
				return err
			}
			return writePaths(cmd.OutOrStdout(), g.json, paths)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of articles to sample")
	cmd.Flags().Float64Var(&minDist, "min", 0, "minimum distance")
	cmd.Flags().Float64Var(&maxDist, "max", 5, "maximum distance; bounds the search")
	return cmd
}

func newPathCmd(g *globalOptions) *cobra.Command {
	var (
		fetch   int
		maxDist float64
	)
	cmd := &cobra.Command{
		Use:   "path ARCHIVE FROM TO",
		Short: "Print the shortest weighted path between two articles",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, closeFn, err := g.open(ctx, args[0], true)
			if err != nil {
				return err
			}
			defer closeFn()

			if fetch > 0 {
				if _, err := graph.Expand(ctx, []string{args[1]}, fetch); err != nil {
					return err
				}
			}
			from, err := lookup(graph, args[1])
			if err != nil {
				return err
			}
			to, err := lookup(graph, args[2])
			if err != nil {
				return err
			}

			p, ok, err := graph.ShortestPath(ctx, from, to, maxDist)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no path from %q to %q within distance %g", args[1], args[2], maxDist)
			}
			paths, err := resolvePaths(graph, []model.PathInfo{p})
			if err != nil {
				return err
			}
			return writePaths(cmd.OutOrStdout(), g.json, paths)
		},
	}
	cmd.Flags().IntVar(&fetch, "expand", 0, "expand around FROM by this many steps before searching")
	cmd.Flags().Float64Var(&maxDist, "max", 50, "maximum distance; bounds the search (inf = unbounded)")
	return cmd
}

func lookup(g *zimgraph.Graph, path string) (model.Key, error) {
	k, ok := g.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not in the session", zimgraph.ErrNotFound, path)
	}
	return k, nil
}
