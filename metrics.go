package zimgraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    pagesCounter    prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordImport(pages, failed int, d time.Duration) {
//	    p.pagesCounter.Add(float64(pages))
//	}
type MetricsCollector interface {
	// RecordImport is called after each bulk import with the number of
	// pages added and articles that failed.
	RecordImport(pages, failed int, duration time.Duration)

	// RecordExpand is called after each frontier expansion.
	RecordExpand(steps, added int, duration time.Duration)

	// RecordSearch is called after each query. kind is "closest" or
	// "path"; results is the number of paths returned.
	RecordSearch(kind string, results int, duration time.Duration, err error)

	// RecordSave is called after each session save.
	RecordSave(duration time.Duration, err error)

	// RecordLoad is called after each session load.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordImport(int, int, time.Duration)           {}
func (NoopMetricsCollector) RecordExpand(int, int, time.Duration)           {}
func (NoopMetricsCollector) RecordSearch(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)                {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ImportCount      atomic.Int64
	ImportPages      atomic.Int64
	ImportFailed     atomic.Int64
	ExpandCount      atomic.Int64
	ExpandAdded      atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
}

// RecordImport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordImport(pages, failed int, _ time.Duration) {
	b.ImportCount.Add(1)
	b.ImportPages.Add(int64(pages))
	b.ImportFailed.Add(int64(failed))
}

// RecordExpand implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExpand(_, added int, _ time.Duration) {
	b.ExpandCount.Add(1)
	b.ExpandAdded.Add(int64(added))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ string, results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchResults.Add(int64(results))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ImportCount:    b.ImportCount.Load(),
		ImportPages:    b.ImportPages.Load(),
		ImportFailed:   b.ImportFailed.Load(),
		ExpandCount:    b.ExpandCount.Load(),
		ExpandAdded:    b.ExpandAdded.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchResults:  b.SearchResults.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ImportCount    int64
	ImportPages    int64
	ImportFailed   int64
	ExpandCount    int64
	ExpandAdded    int64
	SearchCount    int64
	SearchErrors   int64
	SearchResults  int64
	SearchAvgNanos int64
	SaveCount      int64
	SaveErrors     int64
	LoadCount      int64
	LoadErrors     int64
}
