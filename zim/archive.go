package zim

import (
	"cmp"
	"context"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/internal/cache"
	"github.com/hupe1980/zimgraph/internal/resource"
)

// Archive is an open ZIM archive. It is safe for concurrent use.
type Archive struct {
	blob     blobstore.Blob
	ownsBlob bool
	data     []byte // non-nil when the blob is mappable
	size     int64

	header      Header
	mimeTypes   []string
	clusterPtrs []uint64

	source    string
	cache     cache.BlockCache
	ownsCache bool
	group     singleflight.Group
	rc        *resource.Controller
	logger    *slog.Logger

	closed atomic.Bool
}

// Open parses the header, mimetype list and cluster pointer table of the
// archive stored in blob. The caller keeps ownership of blob.
func Open(ctx context.Context, blob blobstore.Blob, optFns ...func(o *Options)) (*Archive, error) {
	opts := Options{ClusterCacheBytes: DefaultClusterCacheBytes}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Archive{
		blob:   blob,
		size:   blob.Size(),
		rc:     opts.Resource,
		logger: opts.Logger,
		cache:  opts.Cache,
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		a.data = data
	}

	if a.size < HeaderSize {
		return nil, fmt.Errorf("%w: archive of %d bytes", ErrInvalidFormat, a.size)
	}
	hb, err := a.readAt(ctx, 0, HeaderSize)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(hb)
	if err != nil {
		return nil, err
	}
	if err := h.validate(a.size); err != nil {
		return nil, err
	}
	a.header = h
	a.source = h.UUID.String()

	if a.mimeTypes, err = a.readMimeTypes(ctx, h.MimeListPos); err != nil {
		return nil, err
	}

	ptrs, err := a.readAt(ctx, int64(h.ClusterPtrPos), int(h.ClusterCount)*8)
	if err != nil {
		return nil, err
	}
	a.clusterPtrs = make([]uint64, h.ClusterCount)
	for i := range a.clusterPtrs {
		a.clusterPtrs[i] = binary.LittleEndian.Uint64(ptrs[i*8:])
	}

	if a.cache == nil {
		a.cache = cache.NewShardedLRUBlockCache(max(opts.ClusterCacheBytes, 1), a.rc)
		a.ownsCache = true
	}

	return a, nil
}

// OpenFile memory-maps the archive at path.
func OpenFile(ctx context.Context, path string, optFns ...func(o *Options)) (*Archive, error) {
	store := blobstore.NewLocalStore(filepath.Dir(path))
	blob, err := store.Open(ctx, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	a, err := Open(ctx, blob, optFns...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	a.ownsBlob = true
	return a, nil
}

// Close releases the archive. Blobs passed to Open are left open.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	var errs []error
	if a.ownsCache {
		errs = append(errs, a.cache.Close())
	} else {
		a.cache.Invalidate(func(k cache.CacheKey) bool {
			return k.Kind == cache.CacheKindCluster && k.Source == a.source
		})
	}
	if a.ownsBlob {
		errs = append(errs, a.blob.Close())
	}
	return errors.Join(errs...)
}

// Header returns the archive header.
func (a *Archive) Header() Header { return a.header }

// EntryCount returns the number of directory entries.
func (a *Archive) EntryCount() uint32 { return a.header.EntryCount }

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 { return a.size }

// CacheStats returns cluster cache hits and misses.
func (a *Archive) CacheStats() (hits, misses int64) { return a.cache.Stats() }

// readAt returns n bytes at off. Mapped archives return a view into the
// mapping; callers must not modify it.
func (a *Archive) readAt(ctx context.Context, off int64, n int) ([]byte, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off > a.size || int64(n) > a.size-off {
		return nil, fmt.Errorf("%w: read [%d, +%d) beyond archive of %d bytes", ErrInvalidFormat, off, n, a.size)
	}
	if a.data != nil {
		return a.data[off : off+int64(n)], nil
	}
	if err := a.rc.AcquireIO(ctx, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := a.blob.ReadAt(ctx, buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}

func (a *Archive) u64At(ctx context.Context, off int64) (uint64, error) {
	b, err := a.readAt(ctx, off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (a *Archive) u32At(ctx context.Context, off int64) (uint32, error) {
	b, err := a.readAt(ctx, off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

const (
	initialEntryWindow = 256
	maxEntryWindow     = 64 << 10
)

// EntryByIndex decodes the i-th entry of the URL pointer table.
func (a *Archive) EntryByIndex(ctx context.Context, i uint32) (Entry, error) {
	if i >= a.header.EntryCount {
		return Entry{}, fmt.Errorf("%w: entry %d of %d", ErrOutOfRange, i, a.header.EntryCount)
	}
	off, err := a.u64At(ctx, int64(a.header.URLPtrPos)+int64(i)*8)
	if err != nil {
		return Entry{}, err
	}
	if off >= uint64(a.size) {
		return Entry{}, fmt.Errorf("%w: entry %d at offset %d beyond archive", ErrInvalidEntry, i, off)
	}

	window := initialEntryWindow
	for {
		n := min(int64(window), a.size-int64(off))
		b, err := a.readAt(ctx, int64(off), int(n))
		if err != nil {
			return Entry{}, err
		}
		e, err := decodeEntry(b, off)
		if err == nil {
			e.Index = i
			return e, nil
		}
		if !errors.Is(err, errShortRecord) || int64(off)+n >= a.size || window >= maxEntryWindow {
			return Entry{}, fmt.Errorf("%w: entry %d at offset %d: %w", ErrInvalidEntry, i, off, err)
		}
		window *= 4
	}
}

// EntryByTitleRank decodes the entry at position i of the title-ordered
// pointer table.
func (a *Archive) EntryByTitleRank(ctx context.Context, i uint32) (Entry, error) {
	if i >= a.header.EntryCount {
		return Entry{}, fmt.Errorf("%w: title %d of %d", ErrOutOfRange, i, a.header.EntryCount)
	}
	idx, err := a.u32At(ctx, int64(a.header.TitlePtrPos)+int64(i)*4)
	if err != nil {
		return Entry{}, err
	}
	return a.EntryByIndex(ctx, idx)
}

// search binary-searches n sorted entries with cmpFn and returns the
// matching entry.
func search(ctx context.Context, n uint32, at func(context.Context, uint32) (Entry, error), cmpFn func(Entry) int) (Entry, error) {
	lo, hi := uint32(0), n
	for lo < hi {
		if err := ctx.Err(); err != nil {
			return Entry{}, err
		}
		mid := lo + (hi-lo)/2
		e, err := at(ctx, mid)
		if err != nil {
			return Entry{}, err
		}
		switch c := cmpFn(e); {
		case c == 0:
			return e, nil
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Entry{}, ErrNotFound
}

// EntryByPath finds the entry with the exact namespace and path.
func (a *Archive) EntryByPath(ctx context.Context, ns byte, path string) (Entry, error) {
	e, err := search(ctx, a.header.EntryCount, a.EntryByIndex, func(e Entry) int {
		return compareKey(e.Namespace, e.Path, ns, path)
	})
	if errors.Is(err, ErrNotFound) {
		return Entry{}, fmt.Errorf("%w: %c/%s", ErrNotFound, ns, path)
	}
	return e, err
}

// EntryByTitle finds the entry with the exact namespace and title.
func (a *Archive) EntryByTitle(ctx context.Context, ns byte, title string) (Entry, error) {
	e, err := search(ctx, a.header.EntryCount, a.EntryByTitleRank, func(e Entry) int {
		return compareKey(e.Namespace, e.Title, ns, title)
	})
	if errors.Is(err, ErrNotFound) {
		return Entry{}, fmt.Errorf("%w: title %q", ErrNotFound, title)
	}
	return e, err
}

// FindArticle looks path up in the content namespace, then in the legacy
// article namespace.
func (a *Archive) FindArticle(ctx context.Context, path string) (Entry, error) {
	e, err := a.EntryByPath(ctx, NamespaceContent, path)
	if !errors.Is(err, ErrNotFound) {
		return e, err
	}
	return a.EntryByPath(ctx, NamespaceArticle, path)
}

// FindArticleByTitle is FindArticle keyed by title.
func (a *Archive) FindArticleByTitle(ctx context.Context, title string) (Entry, error) {
	e, err := a.EntryByTitle(ctx, NamespaceContent, title)
	if !errors.Is(err, ErrNotFound) {
		return e, err
	}
	return a.EntryByTitle(ctx, NamespaceArticle, title)
}

// RedirectTarget returns the entry a redirect points at. Only one hop is
// followed.
func (a *Archive) RedirectTarget(ctx context.Context, e Entry) (Entry, error) {
	if !e.IsRedirect() {
		return Entry{}, fmt.Errorf("%w: %s is not a redirect", ErrInvalidEntry, e)
	}
	return a.EntryByIndex(ctx, e.RedirectIndex)
}

// ReadBlob returns the content of e. The returned slice may be shared
// with the cluster cache and must not be modified.
func (a *Archive) ReadBlob(ctx context.Context, e Entry) ([]byte, error) {
	if e.IsRedirect() {
		return nil, fmt.Errorf("%w: %s is a redirect", ErrInvalidEntry, e)
	}
	if !e.HasContent() {
		return nil, fmt.Errorf("%w: %s has no content", ErrInvalidEntry, e)
	}
	c, err := a.cluster(ctx, e.Cluster)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e, err)
	}
	b, err := blobFromCluster(c, e.Blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e, err)
	}
	return b, nil
}

// Entries yields every entry in URL-table order. Decoding failures are
// yielded with the error and iteration continues.
func (a *Archive) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for i := range a.header.EntryCount {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			e, err := a.EntryByIndex(ctx, i)
			if errors.Is(err, ErrClosed) {
				yield(Entry{}, err)
				return
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// ListArticles returns all entries in article namespaces sorted by title.
// Entries that fail to decode are logged and skipped.
func (a *Archive) ListArticles(ctx context.Context) ([]Entry, error) {
	var out []Entry
	for e, err := range a.Entries(ctx) {
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil, err
			}
			a.logger.DebugContext(ctx, "skipping directory entry", "error", err)
			continue
		}
		if e.IsArticle() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(x, y Entry) int {
		return cmp.Compare(x.Title, y.Title)
	})
	return out, nil
}

// MainEntry returns the designated main page.
func (a *Archive) MainEntry(ctx context.Context) (Entry, error) {
	if !a.header.HasMainPage() {
		return Entry{}, fmt.Errorf("%w: no main page", ErrNotFound)
	}
	return a.EntryByIndex(ctx, a.header.MainPage)
}

const randomAttempts = 256

// RandomEntry picks a uniformly random article entry with content. rng
// may be nil.
func (a *Archive) RandomEntry(ctx context.Context, rng *rand.Rand) (Entry, error) {
	n := a.header.EntryCount
	if n == 0 {
		return Entry{}, fmt.Errorf("%w: empty archive", ErrNotFound)
	}
	pick := rand.Uint32N
	if rng != nil {
		pick = rng.Uint32N
	}
	for range randomAttempts {
		e, err := a.EntryByIndex(ctx, pick(n))
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return Entry{}, err
			}
			continue
		}
		if e.IsArticle() && e.HasContent() {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: no article found in %d attempts", ErrNotFound, randomAttempts)
}

// Metadata returns the value of the metadata entry M/<name>.
func (a *Archive) Metadata(ctx context.Context, name string) ([]byte, error) {
	e, err := a.EntryByPath(ctx, NamespaceMetadata, name)
	if err != nil {
		return nil, err
	}
	return a.ReadBlob(ctx, e)
}

// Verify compares the MD5 digest of the archive with the stored checksum.
func (a *Archive) Verify(ctx context.Context) error {
	pos := int64(a.header.ChecksumPos)
	if pos == 0 || pos+md5.Size > a.size {
		return fmt.Errorf("%w: no checksum stored", ErrInvalidFormat)
	}
	want, err := a.readAt(ctx, pos, md5.Size)
	if err != nil {
		return err
	}

	h := md5.New()
	if a.data != nil {
		h.Write(a.data[:pos])
	} else {
		if err := a.rc.AcquireIO(ctx, int(pos)); err != nil {
			return err
		}
		r, err := a.blob.ReadRange(ctx, 0, pos)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		if _, err := io.Copy(h, r); err != nil {
			return err
		}
	}

	if got := h.Sum(nil); string(got) != string(want) {
		return fmt.Errorf("%w: stored %x, computed %x", ErrChecksumMismatch, want, got)
	}
	return nil
}
