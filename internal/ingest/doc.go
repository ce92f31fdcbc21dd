// Package ingest fills a pagestore from a ZIM archive.
//
// Three strategies share one per-article pipeline (read blob, extract
// links, intern, insert):
//
//   - Import drains the whole archive in fixed-size batches, fanning each
//     batch out to a bounded worker pool.
//   - Expand grows the neighborhood of seed articles step by step, fetching
//     only link targets that are not in the store yet.
//   - AddArticle inserts a single article by path.
//
// Per-article failures (unreadable blobs, unsupported codecs, non-UTF-8
// bodies) are counted and logged, never returned from Import or Expand.
package ingest
