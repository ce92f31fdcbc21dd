package zim

import (
	"log/slog"

	"github.com/hupe1980/zimgraph/internal/cache"
	"github.com/hupe1980/zimgraph/internal/resource"
)

// DefaultClusterCacheBytes is the default budget for decompressed clusters.
const DefaultClusterCacheBytes = 64 << 20

// Options configures an Archive.
type Options struct {
	// Cache holds decompressed clusters. If nil, a sharded LRU of
	// ClusterCacheBytes is created.
	Cache cache.BlockCache

	// ClusterCacheBytes sizes the default cache.
	ClusterCacheBytes int64

	// Resource accounts cache memory and throttles reads. Optional.
	Resource *resource.Controller

	// Logger receives diagnostics such as skipped entries.
	Logger *slog.Logger
}

// WithCache sets a shared cluster cache.
func WithCache(c cache.BlockCache) func(*Options) {
	return func(o *Options) { o.Cache = c }
}

// WithClusterCacheBytes sets the size of the default cluster cache.
func WithClusterCacheBytes(n int64) func(*Options) {
	return func(o *Options) { o.ClusterCacheBytes = n }
}

// WithResourceController sets the resource controller.
func WithResourceController(rc *resource.Controller) func(*Options) {
	return func(o *Options) { o.Resource = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}
