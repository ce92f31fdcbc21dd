package zimgraph

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/internal/ingest"
	"github.com/hupe1980/zimgraph/internal/intern"
	"github.com/hupe1980/zimgraph/internal/pagestore"
	"github.com/hupe1980/zimgraph/internal/resource"
	"github.com/hupe1980/zimgraph/internal/search"
	"github.com/hupe1980/zimgraph/model"
	"github.com/hupe1980/zimgraph/persistence"
	"github.com/hupe1980/zimgraph/zim"
)

type (
	// ImportStats summarizes a bulk import.
	ImportStats = ingest.ImportStats
	// ExpandStats summarizes a frontier expansion.
	ExpandStats = ingest.ExpandStats
)

// randomStartAttempts bounds how many random archive entries RandomStart
// draws before falling back to the pages already in the graph.
const randomStartAttempts = 64

// Graph is the link graph of one archive. It is safe for concurrent use;
// Load replaces the graph state once running operations have finished.
type Graph struct {
	archive     *zim.Archive
	ownsArchive bool
	rc          *resource.Controller
	opts        options

	// rngMu serializes draws from opts.rng, which queries share.
	rngMu sync.Mutex

	mu       sync.RWMutex
	interner *intern.Interner
	pages    *pagestore.Store
	importer *ingest.Importer
	closed   bool
}

// Stats describes the graph and its archive.
type Stats struct {
	Strings     int
	Pages       int
	Links       int
	CacheHits   int64
	CacheMisses int64
}

// New creates an empty Graph over an open archive. The caller keeps
// ownership of archive.
func New(archive *zim.Archive, optFns ...Option) *Graph {
	o := applyOptions(optFns)
	return newGraph(archive, newController(o), o)
}

// Open opens the archive stored in blob and creates an empty Graph over
// it. Close closes the archive but not blob.
func Open(ctx context.Context, blob blobstore.Blob, optFns ...Option) (*Graph, error) {
	o := applyOptions(optFns)
	rc := newController(o)
	a, err := zim.Open(ctx, blob, archiveOptions(o, rc)...)
	if err != nil {
		return nil, translateError(err)
	}
	g := newGraph(a, rc, o)
	g.ownsArchive = true
	return g, nil
}

// OpenFile memory-maps the archive at path and creates an empty Graph
// over it.
func OpenFile(ctx context.Context, path string, optFns ...Option) (*Graph, error) {
	o := applyOptions(optFns)
	rc := newController(o)
	a, err := zim.OpenFile(ctx, path, archiveOptions(o, rc)...)
	if err != nil {
		return nil, translateError(err)
	}
	g := newGraph(a, rc, o)
	g.ownsArchive = true
	return g, nil
}

func newController(o options) *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		MaxWorkers:         int64(o.workers),
		IOLimitBytesPerSec: o.ioLimit,
	})
}

func archiveOptions(o options, rc *resource.Controller) []func(*zim.Options) {
	return []func(*zim.Options){
		zim.WithClusterCacheBytes(o.clusterCacheBytes),
		zim.WithResourceController(rc),
		zim.WithLogger(o.logger.Logger),
	}
}

func newGraph(a *zim.Archive, rc *resource.Controller, o options) *Graph {
	o.logger = o.logger.WithArchive(a.Header().UUID.String())
	g := &Graph{archive: a, rc: rc, opts: o}
	g.reset(intern.New(), pagestore.New())
	return g
}

// reset installs a new graph state. Callers hold mu or own g exclusively.
func (g *Graph) reset(in *intern.Interner, store *pagestore.Store) {
	g.interner = in
	g.pages = store
	g.importer = ingest.NewImporter(g.archive, in, store, func(o *ingest.Options) {
		o.BatchSize = g.opts.batchSize
		o.Workers = g.opts.workers
		o.FollowRedirects = g.opts.followRedirects
		o.ArticleMimePrefix = g.opts.mimePrefix
		o.Policy = g.opts.policy
		o.Collector = g.opts.collector
		o.Logger = g.opts.logger.Logger
		o.Resource = g.rc
		o.OnBatch = func(s ingest.ImportStats) {
			g.opts.logger.LogImportBatch(context.Background(), s)
			if g.opts.onBatch != nil {
				g.opts.onBatch(s)
			}
		}
	})
}

// rlock read-locks g and fails once g is closed.
func (g *Graph) rlock() error {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// Archive returns the underlying archive.
func (g *Graph) Archive() *zim.Archive { return g.archive }

// Import reads every article of the archive and stores its links. Pages
// already in the graph are kept. Articles that cannot be read or parsed
// are counted in the returned stats and do not fail the import.
func (g *Graph) Import(ctx context.Context) (ImportStats, error) {
	if err := g.rlock(); err != nil {
		return ImportStats{}, err
	}
	defer g.mu.RUnlock()

	stats, err := g.importer.Import(ctx)
	g.opts.metricsCollector.RecordImport(stats.Pages, stats.Failed+stats.Unsupported, stats.Elapsed)
	g.opts.logger.LogImport(ctx, stats, err)
	return stats, translateError(err)
}

// AddArticle adds the article at path. It reports false when the article
// already has a page, does not exist or is not an HTML article.
func (g *Graph) AddArticle(ctx context.Context, path string) (bool, error) {
	if err := g.rlock(); err != nil {
		return false, err
	}
	defer g.mu.RUnlock()

	added, err := g.importer.AddArticle(ctx, path)
	if err != nil {
		g.opts.logger.LogArticleFailure(ctx, path, err)
	}
	return added, translateError(err)
}

// Expand fetches the articles at paths, then runs up to steps rounds that
// fetch every link target of the graph still missing a Page.
func (g *Graph) Expand(ctx context.Context, paths []string, steps int) (ExpandStats, error) {
	if err := g.rlock(); err != nil {
		return ExpandStats{}, err
	}
	defer g.mu.RUnlock()

	seeds := make([]model.Key, len(paths))
	for i, p := range paths {
		seeds[i] = g.interner.Intern(p)
	}
	return g.expand(ctx, seeds, steps)
}

// ExpandKeys is Expand for already interned keys.
func (g *Graph) ExpandKeys(ctx context.Context, seeds []model.Key, steps int) (ExpandStats, error) {
	if err := g.rlock(); err != nil {
		return ExpandStats{}, err
	}
	defer g.mu.RUnlock()

	for _, k := range seeds {
		if _, ok := g.interner.Resolve(k); !ok {
			return ExpandStats{}, &ErrUnknownKey{Key: k}
		}
	}
	return g.expand(ctx, seeds, steps)
}

func (g *Graph) expand(ctx context.Context, seeds []model.Key, steps int) (ExpandStats, error) {
	if steps < 0 {
		return ExpandStats{}, fmt.Errorf("%w: negative step budget %d", ErrInvalidArgument, steps)
	}
	start := time.Now()
	stats, err := g.importer.Expand(ctx, seeds, steps)
	g.opts.metricsCollector.RecordExpand(stats.Steps, stats.Added, time.Since(start))
	g.opts.logger.LogExpand(ctx, len(seeds), stats, err)
	return stats, translateError(err)
}

// ClosestTitles returns a random sample of up to count articles whose
// distance from start lies in [minDistance, maxDistance], ordered by
// distance. start itself is never part of the sample.
func (g *Graph) ClosestTitles(ctx context.Context, start model.Key, count int, minDistance, maxDistance float64) ([]model.PathInfo, error) {
	if err := g.rlock(); err != nil {
		return nil, err
	}
	defer g.mu.RUnlock()

	if err := g.known(start); err != nil {
		return nil, err
	}

	var stats search.Stats
	t := time.Now()
	out, err := search.ClosestTitles(g.pages, start, count, minDistance, maxDistance,
		search.WithRand(g.splitRand()), search.WithStats(&stats))
	g.recordSearch(ctx, "closest", len(out), stats, time.Since(t), err)
	return out, translateError(err)
}

// ShortestPath returns the minimum-distance path from start to target.
// The search gives up beyond maxDistance, which bounds its time and
// memory; pass math.Inf(1) to search the whole reachable graph. It
// reports false when target is unreachable within the bound.
func (g *Graph) ShortestPath(ctx context.Context, start, target model.Key, maxDistance float64) (model.PathInfo, bool, error) {
	if err := g.rlock(); err != nil {
		return model.PathInfo{}, false, err
	}
	defer g.mu.RUnlock()

	for _, k := range []model.Key{start, target} {
		if err := g.known(k); err != nil {
			return model.PathInfo{}, false, err
		}
	}

	var stats search.Stats
	t := time.Now()
	p, ok, err := search.ShortestPath(g.pages, start, target,
		search.WithMaxDistance(maxDistance), search.WithStats(&stats))
	g.recordSearch(ctx, "path", stats.Candidates, stats, time.Since(t), err)
	return p, ok, translateError(err)
}

// known returns ErrUnknownKey for a key the interner never assigned.
func (g *Graph) known(k model.Key) error {
	if _, ok := g.interner.Resolve(k); !ok {
		return &ErrUnknownKey{Key: k}
	}
	return nil
}

func (g *Graph) recordSearch(ctx context.Context, kind string, n int, stats search.Stats, d time.Duration, err error) {
	g.opts.metricsCollector.RecordSearch(kind, n, d, err)
	g.opts.logger.LogSearch(ctx, kind, n, stats.Finalized, d, err)
}

// splitRand returns a generator seeded from the configured one, so
// concurrent queries never draw from the shared source at the same time.
// It returns nil without WithRand; the global source is safe for
// concurrent use.
func (g *Graph) splitRand() *rand.Rand {
	if g.opts.rng == nil {
		return nil
	}
	g.rngMu.Lock()
	s1, s2 := g.opts.rng.Uint64(), g.opts.rng.Uint64()
	g.rngMu.Unlock()
	return rand.New(rand.NewPCG(s1, s2))
}

// Resolve returns the article path of k.
func (g *Graph) Resolve(k model.Key) (string, error) {
	if err := g.rlock(); err != nil {
		return "", err
	}
	defer g.mu.RUnlock()

	s, ok := g.interner.Resolve(k)
	if !ok {
		return "", &ErrUnknownKey{Key: k}
	}
	return s, nil
}

// ResolvePath returns the article paths along p.
func (g *Graph) ResolvePath(p model.PathInfo) ([]string, error) {
	if err := g.rlock(); err != nil {
		return nil, err
	}
	defer g.mu.RUnlock()

	out := make([]string, len(p.Path))
	for i, k := range p.Path {
		s, ok := g.interner.Resolve(k)
		if !ok {
			return nil, &ErrUnknownKey{Key: k}
		}
		out[i] = s
	}
	return out, nil
}

// Lookup returns the key of an article path without interning it.
func (g *Graph) Lookup(path string) (model.Key, bool) {
	if g.rlock() != nil {
		return 0, false
	}
	defer g.mu.RUnlock()

	return g.interner.Get(path)
}

// Page returns the outgoing links of k.
func (g *Graph) Page(k model.Key) (*model.Page, bool) {
	if g.rlock() != nil {
		return nil, false
	}
	defer g.mu.RUnlock()

	return g.pages.Get(k)
}

// RandomArticle returns the key of a random archive article. The article
// need not be in the graph.
func (g *Graph) RandomArticle(ctx context.Context) (model.Key, error) {
	if err := g.rlock(); err != nil {
		return 0, err
	}
	defer g.mu.RUnlock()

	return g.randomArticle(ctx)
}

func (g *Graph) randomArticle(ctx context.Context) (model.Key, error) {
	e, err := g.archive.RandomEntry(ctx, g.splitRand())
	if err != nil {
		return 0, translateError(err)
	}
	return g.interner.Intern(e.Path), nil
}

func randIntN(r *rand.Rand) func(int) int {
	if r != nil {
		return r.IntN
	}
	return rand.IntN
}

// RandomStart returns a random article that has outgoing links in the
// graph, which makes it a useful query start.
func (g *Graph) RandomStart(ctx context.Context) (model.Key, error) {
	if err := g.rlock(); err != nil {
		return 0, err
	}
	defer g.mu.RUnlock()

	rng := g.splitRand()
	for range randomStartAttempts {
		e, err := g.archive.RandomEntry(ctx, rng)
		if errors.Is(err, zim.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, translateError(err)
		}
		k, ok := g.interner.Get(e.Path)
		if !ok {
			continue
		}
		if p, ok := g.pages.Get(k); ok && p.Len() > 0 {
			return k, nil
		}
	}

	var linked []model.Key
	g.pages.Range(func(k model.Key, p *model.Page) bool {
		if p.Len() > 0 {
			linked = append(linked, k)
		}
		return true
	})
	if len(linked) == 0 {
		return 0, fmt.Errorf("%w: no page with links", ErrNotFound)
	}
	intN := randIntN(rng)
	return linked[intN(len(linked))], nil
}

// Articles returns the archive's articles sorted by title.
func (g *Graph) Articles(ctx context.Context) ([]zim.Entry, error) {
	if err := g.rlock(); err != nil {
		return nil, err
	}
	defer g.mu.RUnlock()

	out, err := g.archive.ListArticles(ctx)
	return out, translateError(err)
}

// Pages yields every page in key order. g stays read-locked while the
// sequence runs, so the loop body must not call Load or Close.
func (g *Graph) Pages() iter.Seq2[model.Key, *model.Page] {
	return func(yield func(model.Key, *model.Page) bool) {
		if g.rlock() != nil {
			return
		}
		defer g.mu.RUnlock()

		g.pages.Range(yield)
	}
}

// Vocabulary returns every interned path in key order.
func (g *Graph) Vocabulary() []string {
	if g.rlock() != nil {
		return nil
	}
	defer g.mu.RUnlock()

	return g.interner.Strings()
}

// Len returns the number of pages.
func (g *Graph) Len() int {
	if g.rlock() != nil {
		return 0
	}
	defer g.mu.RUnlock()

	return g.pages.Len()
}

// Stats returns graph and cache counters.
func (g *Graph) Stats() Stats {
	if g.rlock() != nil {
		return Stats{}
	}
	defer g.mu.RUnlock()

	hits, misses := g.archive.CacheStats()
	return Stats{
		Strings:     g.interner.Len(),
		Pages:       g.pages.Len(),
		Links:       g.pages.LinkCount(),
		CacheHits:   hits,
		CacheMisses: misses,
	}
}

// Save writes the graph to store as a vocabulary artifact, a graph
// artifact and a manifest binding both to the archive.
func (g *Graph) Save(ctx context.Context, store blobstore.BlobStore) (*persistence.Manifest, error) {
	if err := g.rlock(); err != nil {
		return nil, err
	}
	defer g.mu.RUnlock()

	t := time.Now()
	// Pages first: every target they hold is already interned when the
	// vocabulary is copied.
	snap := &persistence.Snapshot{ArchiveUUID: g.archive.Header().UUID}
	g.pages.Range(func(k model.Key, p *model.Page) bool {
		snap.Pages = append(snap.Pages, persistence.PageRecord{Key: k, Page: p})
		return true
	})
	snap.Vocabulary = g.interner.Strings()

	m, err := persistence.Save(ctx, store, snap, g.persistenceOptions()...)
	g.opts.metricsCollector.RecordSave(time.Since(t), err)
	g.opts.logger.LogSave(ctx, len(snap.Vocabulary), len(snap.Pages), err)
	return m, translateError(err)
}

// Load replaces the graph with a session saved from the same archive.
// Sessions without a manifest are accepted but cannot be checked
// against the archive.
func (g *Graph) Load(ctx context.Context, store blobstore.BlobStore) (*persistence.Manifest, error) {
	t := time.Now()
	snap, m, err := persistence.Load(ctx, store,
		append(g.persistenceOptions(), persistence.WithExpectedArchive(g.archive.Header().UUID))...)
	if err == nil {
		err = g.install(snap)
	}
	g.opts.metricsCollector.RecordLoad(time.Since(t), err)
	if err != nil {
		g.opts.logger.LogLoad(ctx, 0, 0, err)
		return nil, translateError(err)
	}
	g.opts.logger.LogLoad(ctx, len(snap.Vocabulary), len(snap.Pages), nil)
	return m, nil
}

func (g *Graph) install(snap *persistence.Snapshot) error {
	in, err := intern.FromStrings(snap.Vocabulary)
	if err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrCorrupt, err)
	}
	store := pagestore.New()
	for _, r := range snap.Pages {
		if !store.Put(r.Key, r.Page) {
			return fmt.Errorf("%w: duplicate page for key %d", persistence.ErrCorrupt, r.Key)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.reset(in, store)
	return nil
}

func (g *Graph) persistenceOptions() []func(*persistence.Options) {
	return []func(*persistence.Options){
		persistence.WithNames(g.opts.names[0], g.opts.names[1], g.opts.names[2]),
		persistence.WithCompression(g.opts.compression),
		persistence.WithManifestCodec(g.opts.manifestCodec),
		persistence.WithLogger(g.opts.logger.Logger),
	}
}
