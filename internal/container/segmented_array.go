// Package container implements container data structures.
package container

import (
	"sync"
	"sync/atomic"
)

const (
	// segmentBits determines the size of each segment.
	// 14 bits = 16384 slots per segment.
	segmentBits = 14
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// SegmentedArray is an append-grown array of atomic pointer slots.
// Reads and per-slot writes are lock-free; only growth takes a lock.
type SegmentedArray[T any] struct {
	segments atomic.Pointer[[]*segment[T]]
	mu       sync.Mutex // protects growth
}

type segment[T any] struct {
	items [segmentSize]atomic.Pointer[T]
}

// NewSegmentedArray creates a new SegmentedArray.
func NewSegmentedArray[T any]() *SegmentedArray[T] {
	sa := &SegmentedArray[T]{}
	segments := make([]*segment[T], 0)
	sa.segments.Store(&segments)
	return sa
}

// Load returns the pointer stored at index, or nil.
func (sa *SegmentedArray[T]) Load(index uint32) *T {
	if slot := sa.slot(index, false); slot != nil {
		return slot.Load()
	}
	return nil
}

// Store sets the pointer at index, growing the array if necessary.
func (sa *SegmentedArray[T]) Store(index uint32, v *T) {
	sa.slot(index, true).Store(v)
}

// CompareAndSwap swaps the pointer at index if it equals old.
func (sa *SegmentedArray[T]) CompareAndSwap(index uint32, old, v *T) bool {
	return sa.slot(index, true).CompareAndSwap(old, v)
}

// Range calls fn for every non-nil slot in index order until fn returns false.
func (sa *SegmentedArray[T]) Range(fn func(index uint32, v *T) bool) {
	for s, seg := range *sa.segments.Load() {
		if seg == nil {
			continue
		}
		for i := range seg.items {
			if v := seg.items[i].Load(); v != nil {
				if !fn(uint32(s<<segmentBits|i), v) {
					return
				}
			}
		}
	}
}

func (sa *SegmentedArray[T]) slot(index uint32, grow bool) *atomic.Pointer[T] {
	segIdx := int(index >> segmentBits)

	// Fast path: segment exists.
	segments := *sa.segments.Load()
	if segIdx < len(segments) && segments[segIdx] != nil {
		return &segments[segIdx].items[index&segmentMask]
	}
	if !grow {
		return nil
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	// Reload under lock.
	segments = *sa.segments.Load()
	if segIdx < len(segments) && segments[segIdx] != nil {
		return &segments[segIdx].items[index&segmentMask]
	}

	grown := make([]*segment[T], max(segIdx+1, len(segments)))
	copy(grown, segments)
	grown[segIdx] = &segment[T]{}
	sa.segments.Store(&grown)

	return &grown[segIdx].items[index&segmentMask]
}
