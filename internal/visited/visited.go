// Package visited tracks the nodes a search has finalized.
package visited

// Set is a growable bitset over dense node keys. Reset only clears the
// words touched since the last reset, so a Set can be reused across
// searches over a large key space.
type Set struct {
	bits  []uint64
	dirty []uint32
}

// New returns a Set sized for capacity keys. It grows on demand.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]uint32, 0, 128),
	}
}

// Visit marks id and reports whether it was not marked before.
func (s *Set) Visit(id uint32) bool {
	word := int(id >> 6)
	mask := uint64(1) << (id & 63)

	if word >= len(s.bits) {
		s.grow(word + 1)
	}
	if s.bits[word]&mask != 0 {
		return false
	}
	s.bits[word] |= mask
	s.dirty = append(s.dirty, id)
	return true
}

// Visited reports whether id is marked.
func (s *Set) Visited(id uint32) bool {
	word := int(id >> 6)
	if word >= len(s.bits) {
		return false
	}
	return s.bits[word]&(uint64(1)<<(id&63)) != 0
}

// Len returns the number of marked ids.
func (s *Set) Len() int { return len(s.dirty) }

// Reset unmarks every id.
func (s *Set) Reset() {
	for _, id := range s.dirty {
		s.bits[id>>6] = 0
	}
	s.dirty = s.dirty[:0]
}

func (s *Set) grow(n int) {
	size := max(len(s.bits)*2, n)
	bits := make([]uint64, size)
	copy(bits, s.bits)
	s.bits = bits
}
