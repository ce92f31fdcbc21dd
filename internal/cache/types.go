package cache

import "context"

// CacheKind separates key spaces that share one cache.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindCluster           // decompressed archive clusters
	CacheKindBlock             // raw blob-store blocks
)

// CacheKey identifies an immutable block.
type CacheKey struct {
	Kind CacheKind
	// Source names the origin of the block (archive UUID, blob path).
	Source string
	// Offset is a cluster index or a block-aligned byte offset.
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. The caller must not modify b afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources held by the cache.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
