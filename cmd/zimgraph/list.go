package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type articleResult struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

func newListCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list ARCHIVE",
		Short: "List the articles of an archive by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graph, closeFn, err := g.open(ctx, args[0], false)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := graph.Articles(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			out := make([]articleResult, len(entries))
			for i, e := range entries {
				out[i] = articleResult{Title: e.Title, Path: e.Path}
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, a := range out {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.Title, a.Path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many articles (0 = all)")
	return cmd
}
