package search

import (
	"iter"
	"math"

	"github.com/hupe1980/zimgraph/model"
)

// Graph gives read access to Pages. *pagestore.Store implements it.
type Graph interface {
	Get(k model.Key) (*model.Page, bool)
}

// EdgeCost is the cost of following a link of the given weight.
func EdgeCost(weight float32) float64 {
	return float64(weight) + 1
}

// Traverse yields the nodes reachable from start in non-decreasing
// distance order, start itself first at distance 0. Nodes farther than
// maxDistance are never queued; pass math.Inf(1) for no bound. Each
// range over the sequence runs a fresh search.
func Traverse(g Graph, start model.Key, maxDistance float64) iter.Seq[model.PathInfo] {
	return func(yield func(model.PathInfo) bool) {
		s := getSearcher()
		defer putSearcher(s)
		s.run(g, start, maxDistance, yield)
	}
}

func (s *Searcher) run(g Graph, start model.Key, maxDistance float64, yield func(model.PathInfo) bool) {
	if math.IsNaN(maxDistance) || maxDistance < 0 {
		return
	}
	s.push(start, 0, -1)

	for {
		it, ok := s.Frontier.PopItem()
		if !ok {
			return
		}
		// A node may be queued several times; only the first pop counts.
		if !s.Visited.Visit(it.Node) {
			continue
		}
		if !yield(model.PathInfo{Distance: it.Distance, Path: s.path(int32(it.Trail))}) {
			return
		}

		page, ok := g.Get(model.Key(it.Node))
		if !ok {
			continue
		}
		for _, l := range page.Links {
			if s.Visited.Visited(uint32(l.Target)) {
				continue
			}
			d := it.Distance + EdgeCost(l.Weight)
			if d > maxDistance {
				continue
			}
			s.push(l.Target, d, int32(it.Trail))
		}
	}
}
