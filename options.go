package zimgraph

import (
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/zimgraph/codec"
	"github.com/hupe1980/zimgraph/internal/ingest"
	"github.com/hupe1980/zimgraph/internal/links"
	"github.com/hupe1980/zimgraph/persistence"
	"github.com/hupe1980/zimgraph/zim"
)

type options struct {
	metricsCollector  MetricsCollector
	logger            *Logger
	workers           int
	batchSize         int
	clusterCacheBytes int64
	ioLimit           int64
	memoryLimit       int64
	policy            links.Policy
	collector         links.Collector
	followRedirects   bool
	mimePrefix        string
	compression       persistence.Compression
	manifestCodec     codec.Codec
	names             [3]string
	rng               *rand.Rand
	onBatch           func(ImportStats)
}

// Option configures a Graph.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring.
//
// Example:
//
//	metrics := &zimgraph.BasicMetricsCollector{}
//	g, _ := zimgraph.OpenFile(ctx, "wiki.zim", zimgraph.WithMetricsCollector(metrics))
//	// ... use g ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := zimgraph.NewJSONLogger(slog.LevelInfo)
//	g, _ := zimgraph.OpenFile(ctx, "wiki.zim", zimgraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers bounds how many articles are read and parsed in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBatchSize sets how many directory entries one import batch holds.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithClusterCacheBytes sizes the cache of decompressed clusters.
func WithClusterCacheBytes(n int64) Option {
	return func(o *options) {
		o.clusterCacheBytes = n
	}
}

// WithIOLimit throttles archive reads to n bytes per second. Useful for
// archives read from object storage.
func WithIOLimit(n int64) Option {
	return func(o *options) {
		o.ioLimit = n
	}
}

// WithMemoryLimit caps the memory accounted to the cluster cache.
func WithMemoryLimit(n int64) Option {
	return func(o *options) {
		o.memoryLimit = n
	}
}

// WithLinkPolicy sets which hrefs count as article links.
func WithLinkPolicy(p links.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLinkCollector replaces the HTML anchor collector.
func WithLinkCollector(c links.Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

// WithFollowRedirects controls whether redirects get the page of their
// target. Enabled by default.
func WithFollowRedirects(follow bool) Option {
	return func(o *options) {
		o.followRedirects = follow
	}
}

// WithArticleMimePrefix selects which entries are parsed for links.
// The default is "text/html".
func WithArticleMimePrefix(prefix string) Option {
	return func(o *options) {
		o.mimePrefix = prefix
	}
}

// WithCompression sets the compression of saved session artifacts.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithManifestCodec sets the codec of saved session manifests. Loading
// reads any codec known to codec.ByName.
func WithManifestCodec(c codec.Codec) Option {
	return func(o *options) {
		o.manifestCodec = c
	}
}

// WithArtifactNames overrides the names of the saved session artifacts.
func WithArtifactNames(vocabulary, graph, manifest string) Option {
	return func(o *options) {
		o.names = [3]string{vocabulary, graph, manifest}
	}
}

// WithRand sets the random source used for sampling and random articles.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithOnBatch registers a progress callback invoked after every import
// batch with running totals.
func WithOnBatch(fn func(ImportStats)) Option {
	return func(o *options) {
		o.onBatch = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		batchSize:         ingest.DefaultBatchSize,
		clusterCacheBytes: zim.DefaultClusterCacheBytes,
		policy:            links.DefaultPolicy(),
		collector:         links.HTMLCollector{},
		followRedirects:   true,
		mimePrefix:        "text/html",
		compression:       persistence.CompressionZstd,
		manifestCodec:     codec.Default,
		names: [3]string{
			persistence.DefaultVocabularyName,
			persistence.DefaultGraphName,
			persistence.DefaultManifestName,
		},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
