// Package intern maps article paths to dense model.Key values.
//
// Keys are assigned in first-seen order starting at 0 and never change
// meaning, so the vocabulary can be persisted as a plain ordered list and
// replayed to reproduce identical keys.
package intern

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/zimgraph/internal/container"
	"github.com/hupe1980/zimgraph/model"
)

// ErrFull is returned when the key space is exhausted.
var ErrFull = errors.New("intern: key space exhausted")

// Interner is a concurrent, append-only string interner.
// Intern is linearizable: concurrent callers interning the same new
// string all observe the same key.
type Interner struct {
	mu   sync.RWMutex
	keys map[string]model.Key

	strs *container.SegmentedArray[string]
	n    atomic.Uint32
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{
		keys: make(map[string]model.Key),
		strs: container.NewSegmentedArray[string](),
	}
}

// FromStrings rebuilds an Interner whose key i maps to list[i].
func FromStrings(list []string) (*Interner, error) {
	in := New()
	for i, s := range list {
		if k := in.Intern(s); int(k) != i {
			return nil, fmt.Errorf("intern: duplicate string %q at %d (first at %d)", s, i, k)
		}
	}
	return in, nil
}

// Intern returns the key of s, allocating the next key if s is new.
// It panics with ErrFull after 2^32-1 distinct strings.
func (in *Interner) Intern(s string) model.Key {
	in.mu.RLock()
	k, ok := in.keys[s]
	in.mu.RUnlock()
	if ok {
		return k
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if k, ok := in.keys[s]; ok {
		return k
	}

	next := in.n.Load()
	if next == math.MaxUint32 {
		panic(ErrFull)
	}
	k = model.Key(next)
	// Publish the string before the count so Resolve never sees a hole.
	in.strs.Store(next, &s)
	in.keys[s] = k
	in.n.Store(next + 1)
	return k
}

// Get returns the key of s without allocating.
func (in *Interner) Get(s string) (model.Key, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	k, ok := in.keys[s]
	return k, ok
}

// Resolve returns the string for k.
func (in *Interner) Resolve(k model.Key) (string, bool) {
	if uint32(k) >= in.n.Load() {
		return "", false
	}
	p := in.strs.Load(uint32(k))
	if p == nil {
		return "", false
	}
	return *p, true
}

// MustResolve is Resolve for keys known to exist.
func (in *Interner) MustResolve(k model.Key) string {
	s, ok := in.Resolve(k)
	if !ok {
		panic(fmt.Sprintf("intern: unknown key %d", k))
	}
	return s
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	return int(in.n.Load())
}

// Strings returns the vocabulary in key order.
func (in *Interner) Strings() []string {
	n := in.Len()
	out := make([]string, n)
	for i := range n {
		out[i] = *in.strs.Load(uint32(i))
	}
	return out
}
