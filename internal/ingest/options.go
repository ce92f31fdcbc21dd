package ingest

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/zimgraph/internal/links"
	"github.com/hupe1980/zimgraph/internal/resource"
)

// DefaultBatchSize is the number of entries pulled per import batch.
const DefaultBatchSize = 100

// Options configures an Importer.
type Options struct {
	// BatchSize bounds how many entries are in flight during Import.
	BatchSize int

	// Workers bounds parallel article processing. Zero means the resource
	// controller's worker limit, or GOMAXPROCS.
	Workers int

	// FollowRedirects stores the page of a redirect's target under the
	// redirect's own path. Only one hop is followed.
	FollowRedirects bool

	// ArticleMimePrefix selects which entries are parsed for links.
	// Empty accepts every mimetype.
	ArticleMimePrefix string

	Policy    links.Policy
	Collector links.Collector

	// OnBatch is called after every import batch with running totals.
	OnBatch func(ImportStats)

	Logger   *slog.Logger
	Resource *resource.Controller
}

func defaultOptions() Options {
	return Options{
		BatchSize:         DefaultBatchSize,
		FollowRedirects:   true,
		ArticleMimePrefix: "text/html",
		Policy:            links.DefaultPolicy(),
		Collector:         links.HTMLCollector{},
	}
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers <= 0 {
		o.Workers = o.Resource.MaxWorkers()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Collector == nil {
		o.Collector = links.HTMLCollector{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}
