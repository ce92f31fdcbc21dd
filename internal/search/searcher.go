package search

import (
	"slices"
	"sync"

	"github.com/hupe1980/zimgraph/internal/queue"
	"github.com/hupe1980/zimgraph/internal/visited"
	"github.com/hupe1980/zimgraph/model"
)

// Searcher owns the scratch memory of one traversal. It is not safe for
// concurrent use; Traverse takes one from a pool per iteration.
type Searcher struct {
	// Visited holds finalized nodes.
	Visited *visited.Set
	// Frontier orders discovered nodes by tentative distance.
	Frontier *queue.PriorityQueue

	// trail records every push as (node, parent trail index) so paths are
	// rebuilt on demand instead of copied per push.
	trail []step
}

type step struct {
	node   model.Key
	parent int32
}

// NewSearcher returns a Searcher sized for a graph of about maxNodes keys.
func NewSearcher(maxNodes int) *Searcher {
	return &Searcher{
		Visited:  visited.New(maxNodes),
		Frontier: queue.NewMin(128),
		trail:    make([]step, 0, 128),
	}
}

// Reset clears the searcher state for reuse without freeing memory.
func (s *Searcher) Reset() {
	s.Visited.Reset()
	s.Frontier.Reset()
	s.trail = s.trail[:0]
}

func (s *Searcher) push(node model.Key, distance float64, parent int32) {
	s.trail = append(s.trail, step{node: node, parent: parent})
	s.Frontier.PushItem(queue.Item{
		Node:     uint32(node),
		Distance: distance,
		Trail:    uint32(len(s.trail) - 1),
	})
}

// path rebuilds the key sequence ending at trail index i.
func (s *Searcher) path(i int32) []model.Key {
	var out []model.Key
	for ; i >= 0; i = s.trail[i].parent {
		out = append(out, s.trail[i].node)
	}
	slices.Reverse(out)
	return out
}

var searchers = sync.Pool{
	New: func() any { return NewSearcher(1 << 12) },
}

func getSearcher() *Searcher {
	return searchers.Get().(*Searcher)
}

func putSearcher(s *Searcher) {
	s.Reset()
	searchers.Put(s)
}
