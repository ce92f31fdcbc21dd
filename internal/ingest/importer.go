package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/zimgraph/internal/intern"
	"github.com/hupe1980/zimgraph/internal/links"
	"github.com/hupe1980/zimgraph/internal/pagestore"
	"github.com/hupe1980/zimgraph/model"
	"github.com/hupe1980/zimgraph/zim"
)

// Source is the archive surface the importer reads from.
// *zim.Archive implements it.
type Source interface {
	Entries(ctx context.Context) iter.Seq2[zim.Entry, error]
	FindArticle(ctx context.Context, path string) (zim.Entry, error)
	RedirectTarget(ctx context.Context, e zim.Entry) (zim.Entry, error)
	ReadBlob(ctx context.Context, e zim.Entry) ([]byte, error)
	MimeType(e zim.Entry) string
}

var _ Source = (*zim.Archive)(nil)

// ImportStats summarizes an Import run.
type ImportStats struct {
	// Entries is the number of directory entries visited.
	Entries int
	// Pages is the number of Pages inserted.
	Pages int
	// Skipped counts entries that are not articles, not of the article
	// mimetype, or whose key already had a Page.
	Skipped int
	// Redirects counts redirect entries, followed or not.
	Redirects int
	// Failed counts entries that could not be decoded, read or parsed.
	Failed int
	// Unsupported counts articles in clusters with an unsupported codec.
	Unsupported int
	Batches     int
	Elapsed     time.Duration
}

// Importer inserts articles of one archive into a page store.
type Importer struct {
	src   Source
	in    *intern.Interner
	store *pagestore.Store
	opts  Options

	mu         sync.Mutex
	unresolved *roaring.Bitmap
}

// NewImporter returns an Importer writing into in and store.
func NewImporter(src Source, in *intern.Interner, store *pagestore.Store, optFns ...func(o *Options)) *Importer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.normalize()

	return &Importer{
		src:        src,
		in:         in,
		store:      store,
		opts:       opts,
		unresolved: roaring.New(),
	}
}

type outcome uint8

const (
	outcomeAdded outcome = iota
	outcomePresent
	outcomeSkipped
	outcomeNotFound
	outcomeUnsupported
	outcomeFailed
)

type counters struct {
	pages, skipped, redirects, failed, unsupported atomic.Int64
}

func (c *counters) record(o outcome, redirect bool) {
	if redirect {
		c.redirects.Add(1)
	}
	switch o {
	case outcomeAdded:
		c.pages.Add(1)
	case outcomePresent, outcomeSkipped:
		c.skipped.Add(1)
	case outcomeUnsupported:
		c.unsupported.Add(1)
	case outcomeNotFound, outcomeFailed:
		c.failed.Add(1)
	}
}

// Import walks every directory entry of the archive and inserts a Page
// for each article. It returns early only on context cancellation or
// when the archive is closed.
func (im *Importer) Import(ctx context.Context) (ImportStats, error) {
	start := time.Now()

	var (
		stats ImportStats
		c     counters
		batch = make([]zim.Entry, 0, im.opts.BatchSize)
	)

	snapshot := func() ImportStats {
		s := stats
		s.Pages = int(c.pages.Load())
		s.Skipped += int(c.skipped.Load())
		s.Redirects += int(c.redirects.Load())
		s.Failed += int(c.failed.Load())
		s.Unsupported = int(c.unsupported.Load())
		s.Elapsed = time.Since(start)
		return s
	}

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.runBatch(ctx, batch, &c); err != nil {
			return err
		}
		stats.Batches++
		s := snapshot()
		im.opts.Logger.DebugContext(ctx, "import batch",
			"batch", s.Batches, "entries", s.Entries, "pages", s.Pages, "failed", s.Failed)
		if im.opts.OnBatch != nil {
			im.opts.OnBatch(s)
		}
		batch = batch[:0]
		return nil
	}

	for e, err := range im.src.Entries(ctx) {
		if err != nil {
			if errors.Is(err, zim.ErrClosed) || ctx.Err() != nil {
				return snapshot(), err
			}
			stats.Entries++
			stats.Failed++
			im.opts.Logger.DebugContext(ctx, "skipping directory entry", "error", err)
			continue
		}
		stats.Entries++

		if !im.accept(e) {
			if e.IsRedirect() && e.IsArticle() {
				stats.Redirects++
			}
			stats.Skipped++
			continue
		}

		batch = append(batch, e)
		if len(batch) == im.opts.BatchSize {
			if err := flush(); err != nil {
				return snapshot(), err
			}
		}
	}
	if err := flush(); err != nil {
		return snapshot(), err
	}
	if err := ctx.Err(); err != nil {
		return snapshot(), err
	}
	return snapshot(), nil
}

// accept reports whether e is worth reading during Import.
func (im *Importer) accept(e zim.Entry) bool {
	if !e.IsArticle() {
		return false
	}
	if e.IsRedirect() {
		return im.opts.FollowRedirects
	}
	return e.HasContent() && im.mimeOK(e)
}

func (im *Importer) mimeOK(e zim.Entry) bool {
	return strings.HasPrefix(im.src.MimeType(e), im.opts.ArticleMimePrefix)
}

func (im *Importer) runBatch(ctx context.Context, batch []zim.Entry, c *counters) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)

	for _, e := range batch {
		g.Go(func() error {
			if err := im.opts.Resource.AcquireWorker(gctx); err != nil {
				return err
			}
			defer im.opts.Resource.ReleaseWorker()

			o, err := im.ingest(gctx, im.in.Intern(e.Path), e)
			if err != nil && (errors.Is(err, zim.ErrClosed) || gctx.Err() != nil) {
				return err
			}
			c.record(o, e.IsRedirect())
			return nil
		})
	}
	return g.Wait()
}

// ingest reads e and stores its Page under key. Redirects are resolved
// one hop when FollowRedirects is set.
func (im *Importer) ingest(ctx context.Context, key model.Key, e zim.Entry) (outcome, error) {
	if im.store.Has(key) {
		return outcomePresent, nil
	}

	if e.IsRedirect() {
		if !im.opts.FollowRedirects {
			return outcomeSkipped, nil
		}
		target, err := im.src.RedirectTarget(ctx, e)
		if err != nil {
			return im.fail(ctx, e.String(), err)
		}
		if target.IsRedirect() {
			im.opts.Logger.DebugContext(ctx, "redirect chain not followed", "entry", e.String(), "target", target.String())
			return outcomeSkipped, nil
		}
		e = target
	}

	if !e.HasContent() || !im.mimeOK(e) {
		return outcomeSkipped, nil
	}

	body, err := im.src.ReadBlob(ctx, e)
	if err != nil {
		return im.fail(ctx, e.String(), err)
	}
	page, err := links.Extract(body, im.opts.Collector, im.opts.Policy, im.in)
	if err != nil {
		return im.fail(ctx, e.String(), err)
	}

	if !im.store.Put(key, page) {
		return outcomePresent, nil
	}
	return outcomeAdded, nil
}

func (im *Importer) fail(ctx context.Context, what string, err error) (outcome, error) {
	im.opts.Logger.DebugContext(ctx, "article failed", "entry", what, "error", err)
	switch {
	case errors.Is(err, zim.ErrUnsupportedCompression):
		return outcomeUnsupported, err
	case errors.Is(err, zim.ErrNotFound):
		return outcomeNotFound, err
	default:
		return outcomeFailed, err
	}
}

// AddArticle looks path up in the archive and inserts its Page. It
// reports false when the key already has a Page or the path does not
// name an article. Read and parse failures are returned.
func (im *Importer) AddArticle(ctx context.Context, path string) (bool, error) {
	key := im.in.Intern(path)
	if im.store.Has(key) {
		return false, nil
	}

	o, err := im.fetch(ctx, key)
	switch o {
	case outcomeAdded:
		return true, nil
	case outcomeUnsupported, outcomeFailed:
		return false, fmt.Errorf("ingest: add %q: %w", path, err)
	default:
		if err != nil && ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
}

// fetch resolves key to an archive entry and ingests it.
func (im *Importer) fetch(ctx context.Context, key model.Key) (outcome, error) {
	path, ok := im.in.Resolve(key)
	if !ok {
		return outcomeNotFound, fmt.Errorf("ingest: unknown key %d", key)
	}
	e, err := im.src.FindArticle(ctx, path)
	if err != nil {
		if errors.Is(err, zim.ErrNotFound) {
			return outcomeNotFound, err
		}
		return im.fail(ctx, path, err)
	}
	return im.ingest(ctx, key, e)
}
