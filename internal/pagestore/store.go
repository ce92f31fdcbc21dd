// Package pagestore holds the Page of every ingested article, indexed by
// interned key.
//
// Slots are atomic pointers in a segmented array, so workers inserting
// different keys never coordinate, and inserting the same key twice keeps
// the first Page.
package pagestore

import (
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/zimgraph/internal/container"
	"github.com/hupe1980/zimgraph/model"
)

// Store maps keys to Pages. It is safe for concurrent use.
type Store struct {
	pages *container.SegmentedArray[model.Page]
	n     atomic.Int64
	links atomic.Int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{pages: container.NewSegmentedArray[model.Page]()}
}

// Put inserts p under k unless k already has a Page. It reports whether
// p was inserted. A nil p is stored as a Page without links.
func (s *Store) Put(k model.Key, p *model.Page) bool {
	if p == nil {
		p = &model.Page{}
	}
	if !s.pages.CompareAndSwap(uint32(k), nil, p) {
		return false
	}
	s.n.Add(1)
	s.links.Add(int64(p.Len()))
	return true
}

// Get returns the Page of k.
func (s *Store) Get(k model.Key) (*model.Page, bool) {
	p := s.pages.Load(uint32(k))
	return p, p != nil
}

// Has reports whether k has a Page.
func (s *Store) Has(k model.Key) bool {
	return s.pages.Load(uint32(k)) != nil
}

// Len returns the number of Pages.
func (s *Store) Len() int {
	return int(s.n.Load())
}

// LinkCount returns the total number of outgoing links over all Pages.
func (s *Store) LinkCount() int {
	return int(s.links.Load())
}

// Range calls fn for every Page in key order until fn returns false.
// Pages inserted during Range may or may not be visited.
func (s *Store) Range(fn func(k model.Key, p *model.Page) bool) {
	s.pages.Range(func(i uint32, p *model.Page) bool {
		return fn(model.Key(i), p)
	})
}

// Keys returns a snapshot of the keys that have a Page.
func (s *Store) Keys() *roaring.Bitmap {
	bm := roaring.New()
	s.Range(func(k model.Key, _ *model.Page) bool {
		bm.Add(uint32(k))
		return true
	})
	return bm
}

// Targets returns the link targets of every Page in the store that have
// no Page themselves.
func (s *Store) Targets() *roaring.Bitmap {
	targets := roaring.New()
	s.Range(func(_ model.Key, p *model.Page) bool {
		for _, l := range p.Links {
			targets.Add(uint32(l.Target))
		}
		return true
	})
	targets.AndNot(s.Keys())
	return targets
}
