package ingest

import (
	"context"
	"errors"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/zimgraph/model"
	"github.com/hupe1980/zimgraph/zim"
)

// ExpandStats summarizes an Expand run.
type ExpandStats struct {
	// Steps is the number of expansion rounds run.
	Steps int
	// Added is the number of Pages inserted, seeds included.
	Added int
	// Unresolved counts targets that did not yield a Page. They are
	// remembered and not fetched again by this Importer.
	Unresolved int
}

// Expand grows the store around seeds. Seeds without a Page are fetched
// first; then each step fetches every link target of the stored Pages
// that has no Page yet and is not known to be unresolvable. It stops
// after steps rounds or when no such target remains.
func (im *Importer) Expand(ctx context.Context, seeds []model.Key, steps int) (ExpandStats, error) {
	var stats ExpandStats

	ring := roaring.New()
	for _, k := range seeds {
		ring.Add(uint32(k))
	}

	added, err := im.fetchAll(ctx, ring, &stats)
	if err != nil {
		return stats, err
	}
	stats.Added += added

	for stats.Steps < steps {
		next := im.frontier()
		if next.IsEmpty() {
			break
		}

		added, err := im.fetchAll(ctx, next, &stats)
		if err != nil {
			return stats, err
		}
		stats.Added += added
		stats.Steps++

		im.opts.Logger.DebugContext(ctx, "expand step",
			"step", stats.Steps, "frontier", next.GetCardinality(), "added", added, "pages", im.store.Len())
	}
	return stats, nil
}

// frontier returns the link targets of the store that are still to be
// fetched.
func (im *Importer) frontier() *roaring.Bitmap {
	next := im.store.Targets()
	im.mu.Lock()
	next.AndNot(im.unresolved)
	im.mu.Unlock()
	return next
}

// fetchAll fetches every key in keys that has no Page and is not known to
// be unresolvable.
func (im *Importer) fetchAll(ctx context.Context, keys *roaring.Bitmap, stats *ExpandStats) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	im.mu.Lock()
	todo := roaring.AndNot(keys, im.unresolved)
	im.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)

	var c counters
	failed := roaring.New()
	it := todo.Iterator()
	for it.HasNext() {
		key := model.Key(it.Next())
		if im.store.Has(key) {
			continue
		}
		g.Go(func() error {
			if err := im.opts.Resource.AcquireWorker(gctx); err != nil {
				return err
			}
			defer im.opts.Resource.ReleaseWorker()

			o, err := im.fetch(gctx, key)
			if err != nil && (errors.Is(err, zim.ErrClosed) || gctx.Err() != nil) {
				return err
			}
			c.record(o, false)
			if o != outcomeAdded && o != outcomePresent {
				im.mu.Lock()
				failed.Add(uint32(key))
				im.mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()

	im.mu.Lock()
	im.unresolved.Or(failed)
	stats.Unresolved += int(failed.GetCardinality())
	im.mu.Unlock()

	return int(c.pages.Load()), err
}
