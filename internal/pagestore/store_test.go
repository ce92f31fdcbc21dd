package pagestore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/model"
)

func TestStore_PutGet(t *testing.T) {
	s := New()

	p := model.NewPage([]model.Key{1, 2})
	assert.True(t, s.Put(0, p))
	assert.False(t, s.Put(0, model.NewPage([]model.Key{3})), "first insert wins")

	got, ok := s.Get(0)
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.False(t, s.Has(70000))

	assert.True(t, s.Put(70000, nil))
	got, ok = s.Get(70000)
	require.True(t, ok)
	assert.Equal(t, 0, got.Len())

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.LinkCount())
	assert.Equal(t, []uint32{0, 70000}, s.Keys().ToArray())
}

func TestStore_Targets(t *testing.T) {
	s := New()
	s.Put(0, model.NewPage([]model.Key{1, 2}))
	s.Put(1, model.NewPage([]model.Key{0, 3}))

	assert.Equal(t, []uint32{2, 3}, s.Targets().ToArray())
}

func TestStore_RangeOrderAndStop(t *testing.T) {
	s := New()
	for _, k := range []model.Key{40000, 5, 17} {
		s.Put(k, &model.Page{})
	}

	var keys []model.Key
	s.Range(func(k model.Key, _ *model.Page) bool {
		keys = append(keys, k)
		return len(keys) < 2
	})
	assert.Equal(t, []model.Key{5, 17}, keys)
}

func TestStore_ConcurrentPut(t *testing.T) {
	s := New()

	const workers, keys = 8, 2000
	var added [workers]int
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range keys {
				if s.Put(model.Key(k), &model.Page{}) {
					added[w]++
				}
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range added {
		total += n
	}
	assert.Equal(t, keys, total, "each key is added exactly once")
	assert.Equal(t, keys, s.Len())
}
