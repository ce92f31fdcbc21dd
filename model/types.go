package model

import "fmt"

// Key identifies an interned article path. Keys are dense and start at 0.
type Key uint32

// Link is one outgoing link of a Page.
type Link struct {
	Target Key
	// Weight is (position+1)/len(links) and lies in (0, 1].
	Weight float32
}

// LinkInfo describes where a target appears in a Page.
type LinkInfo struct {
	Index  int
	Weight float32
}

// Page holds the outgoing links of one article in document order.
// The slice index of a link is its position; targets are unique.
type Page struct {
	Links []Link
}

// Weight returns the weight of the link at position index among total
// distinct links.
func Weight(index, total int) float32 {
	return float32(index+1) / float32(total)
}

// NewPage builds a Page from link targets in document order. Repeated
// targets keep their first position.
func NewPage(targets []Key) *Page {
	seen := make(map[Key]struct{}, len(targets))
	unique := make([]Key, 0, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}

	p := &Page{Links: make([]Link, len(unique))}
	for i, t := range unique {
		p.Links[i] = Link{Target: t, Weight: Weight(i, len(unique))}
	}
	return p
}

// Len returns the number of outgoing links.
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Links)
}

// Lookup returns the position and weight of the link to target.
func (p *Page) Lookup(target Key) (LinkInfo, bool) {
	if p == nil {
		return LinkInfo{}, false
	}
	for i, l := range p.Links {
		if l.Target == target {
			return LinkInfo{Index: i, Weight: l.Weight}, true
		}
	}
	return LinkInfo{}, false
}

// PathInfo is a node finalized by a graph search.
type PathInfo struct {
	// Distance is the sum of edge costs along Path.
	Distance float64
	// Path runs from the search start to the node, both included.
	Path []Key
}

// Target returns the last key of the path.
func (p PathInfo) Target() Key {
	return p.Path[len(p.Path)-1]
}

// Hops returns the number of edges on the path.
func (p PathInfo) Hops() int {
	return len(p.Path) - 1
}

func (p PathInfo) String() string {
	return fmt.Sprintf("PathInfo(%.3f, %v)", p.Distance, p.Path)
}
