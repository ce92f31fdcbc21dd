package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedLRUBlockCache_BasicOperations(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()

	c.Set(ctx, clusterKey(1), []byte("test data"))
	got, ok := c.Get(ctx, clusterKey(1))
	require.True(t, ok)
	assert.Equal(t, "test data", string(got))

	_, ok = c.Get(ctx, clusterKey(999))
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestShardedLRUBlockCache_Distribution(t *testing.T) {
	c := NewShardedLRUBlockCache(64<<20, nil)
	ctx := context.Background()

	for i := range uint64(1000) {
		c.Set(ctx, clusterKey(i), make([]byte, 1024))
	}

	assert.Equal(t, 1000, c.Len())
	assert.Equal(t, int64(1000*1024), c.Size())

	used := 0
	for _, shard := range c.shards {
		if shard.Len() > 0 {
			used++
		}
	}
	assert.Greater(t, used, numShards/2)
}

func TestShardedLRUBlockCache_Concurrent(t *testing.T) {
	c := NewShardedLRUBlockCache(1<<20, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := clusterKey(uint64(g*1000 + i))
				c.Set(ctx, k, []byte{byte(i)})
				got, ok := c.Get(ctx, k)
				if assert.True(t, ok) {
					assert.Equal(t, byte(i), got[0])
				}
			}
		}()
	}
	wg.Wait()

	c.Invalidate(func(k CacheKey) bool { return k.Offset%2 == 0 })
	assert.Equal(t, 800, c.Len())
	require.NoError(t, c.Close())
	assert.Zero(t, c.Len())
}
