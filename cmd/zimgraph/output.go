package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/codec"
	"github.com/hupe1980/zimgraph/model"
)

// pathResult is the JSON form of a search result.
type pathResult struct {
	Distance float64  `json:"distance"`
	Hops     int      `json:"hops"`
	Path     []string `json:"path"`
}

func writeJSON(w io.Writer, v any) error {
	b, err := codec.GoJSON{}.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func resolvePaths(g *zimgraph.Graph, infos []model.PathInfo) ([]pathResult, error) {
	out := make([]pathResult, len(infos))
	for i, p := range infos {
		titles, err := g.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		out[i] = pathResult{Distance: p.Distance, Hops: p.Hops(), Path: titles}
	}
	return out, nil
}

func writePaths(w io.Writer, asJSON bool, paths []pathResult) error {
	if asJSON {
		return writeJSON(w, paths)
	}
	for _, p := range paths {
		if _, err := fmt.Fprintf(w, "%8.3f  %s\n", p.Distance, strings.Join(p.Path, " -> ")); err != nil {
			return err
		}
	}
	return nil
}
