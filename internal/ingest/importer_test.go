package ingest

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/internal/intern"
	"github.com/hupe1980/zimgraph/internal/links"
	"github.com/hupe1980/zimgraph/internal/pagestore"
	"github.com/hupe1980/zimgraph/internal/zimtest"
	"github.com/hupe1980/zimgraph/model"
	"github.com/hupe1980/zimgraph/zim"
)

func fixture() *zimtest.Builder {
	b := zimtest.New()
	stored := b.AddCluster(zimtest.Stored, false)
	packed := b.AddCluster(zimtest.XZ, false)
	zstd := b.AddCluster(zimtest.Zstd, false)

	b.AddHTML(stored, "Aspirin", "Aspirin",
		`<a href="Pain">p</a> <a href="https://example.org">x</a> <a href="#top">t</a> <a href="Fever">f</a>`)
	b.AddHTML(stored, "Pain", "Pain", `<a href="Headache">h</a>`)
	b.AddHTML(packed, "Fever", "Fever", `<a href="Aspirin">a</a> <a href="Nausea">n</a>`)
	b.AddHTML(packed, "Headache", "Headache", `<p>no links</p>`)
	b.AddHTML(zstd, "Modern", "Modern", `<a href="Aspirin">a</a>`)
	b.AddArticle(stored, 'C', "Binary", "Binary", "text/html", []byte{0xff, 0xfe, 0xfd})
	b.AddArticle(stored, 'C', "style.css", "", "text/css", []byte("a{}"))
	b.AddRedirect('C', "ASA", "ASA", 'C', "Aspirin")
	b.AddMetadata(stored, "Title", "Medicine")
	return b
}

func openArchive(t *testing.T, b *zimtest.Builder) *zim.Archive {
	t.Helper()
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "test.zim", b.MustBytes()))
	blob, err := store.Open(ctx, "test.zim")
	require.NoError(t, err)
	a, err := zim.Open(ctx, blob)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newImporter(t *testing.T, optFns ...func(*Options)) (*Importer, *intern.Interner, *pagestore.Store) {
	t.Helper()
	in := intern.New()
	store := pagestore.New()
	return NewImporter(openArchive(t, fixture()), in, store, optFns...), in, store
}

func targets(t *testing.T, in *intern.Interner, p *model.Page) []string {
	t.Helper()
	out := make([]string, 0, p.Len())
	for _, l := range p.Links {
		out = append(out, in.MustResolve(l.Target))
	}
	return out
}

func TestImporter_Import(t *testing.T) {
	var batches atomic.Int32
	im, in, store := newImporter(t, func(o *Options) {
		o.BatchSize = 2
		o.Workers = 3
		o.OnBatch = func(ImportStats) { batches.Add(1) }
	})

	stats, err := im.Import(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, stats.Entries)
	assert.Equal(t, 5, stats.Pages)
	assert.Equal(t, 1, stats.Unsupported)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Redirects)
	assert.Equal(t, 4, stats.Batches)
	assert.Equal(t, int32(4), batches.Load())
	assert.Equal(t, 5, store.Len())

	aspirin, ok := in.Get("Aspirin")
	require.True(t, ok)
	page, ok := store.Get(aspirin)
	require.True(t, ok)
	assert.Equal(t, []string{"Pain", "Fever"}, targets(t, in, page))
	assert.InDelta(t, 0.5, page.Links[0].Weight, 1e-6)
	assert.InDelta(t, 1.0, page.Links[1].Weight, 1e-6)

	asa, ok := in.Get("ASA")
	require.True(t, ok)
	redirected, ok := store.Get(asa)
	require.True(t, ok)
	assert.Equal(t, targets(t, in, page), targets(t, in, redirected))

	for _, missing := range []string{"Modern", "Binary", "style.css", "Nausea"} {
		if k, ok := in.Get(missing); ok {
			assert.False(t, store.Has(k), missing)
		}
	}
}

func TestImporter_ImportWithoutRedirects(t *testing.T) {
	im, in, store := newImporter(t, func(o *Options) { o.FollowRedirects = false })

	stats, err := im.Import(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Pages)
	assert.Equal(t, 1, stats.Redirects)
	assert.Equal(t, 3, stats.Skipped)

	if k, ok := in.Get("ASA"); ok {
		assert.False(t, store.Has(k))
	}
}

func TestImporter_ImportAllMimetypes(t *testing.T) {
	im, in, store := newImporter(t, func(o *Options) { o.ArticleMimePrefix = "" })

	stats, err := im.Import(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Pages)

	css, ok := in.Get("style.css")
	require.True(t, ok)
	assert.True(t, store.Has(css))
}

func TestImporter_ImportIsIdempotent(t *testing.T) {
	im, _, store := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx)
	require.NoError(t, err)
	n := store.Len()

	stats, err := im.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pages)
	assert.Equal(t, n, store.Len())
}

func TestImporter_ImportCanceled(t *testing.T) {
	im, _, _ := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Import(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImporter_AddArticle(t *testing.T) {
	im, in, store := newImporter(t)
	ctx := context.Background()

	added, err := im.AddArticle(ctx, "Pain")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = im.AddArticle(ctx, "Pain")
	require.NoError(t, err)
	assert.False(t, added, "already present")

	added, err = im.AddArticle(ctx, "Nausea")
	require.NoError(t, err)
	assert.False(t, added, "not in the archive")

	added, err = im.AddArticle(ctx, "ASA")
	require.NoError(t, err)
	assert.True(t, added, "redirects are followed")

	_, err = im.AddArticle(ctx, "Modern")
	assert.ErrorIs(t, err, zim.ErrUnsupportedCompression)

	_, err = im.AddArticle(ctx, "Binary")
	assert.ErrorIs(t, err, links.ErrNotUTF8)

	assert.Equal(t, 2, store.Len())
	pain, _ := in.Get("Pain")
	page, ok := store.Get(pain)
	require.True(t, ok)
	assert.Equal(t, []string{"Headache"}, targets(t, in, page))
}
