// Package resource bounds the shared resources used while building a link
// graph from an archive.
//
// A Controller governs three budgets:
//
//   - Memory: bytes held by decompressed-cluster caches (non-blocking, fail-fast)
//   - Workers: concurrent article-extraction goroutines during ingestion
//   - IO: archive read throughput, mainly for remote archives (token bucket)
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   512 << 20,
//	    MaxWorkers:         8,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// All methods are safe for concurrent use, and a nil *Controller is valid:
// every method becomes a no-op that grants the request.
package resource
