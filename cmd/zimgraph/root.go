package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/codec"
	"github.com/hupe1980/zimgraph/internal/links"
	"github.com/hupe1980/zimgraph/persistence"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	session     string
	envFile     string
	logLevel    string
	json        bool
	workers     int
	batchSize   int
	cacheSize   string
	ioLimit     string
	policy      string
	compression string
	manifest    string
	seed        uint64
}

func (g *globalOptions) flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.StringVar(&g.session, "session", "", "session location: a directory, s3://bucket/prefix or minio://bucket/prefix")
	fs.StringVar(&g.envFile, "env-file", ".env", "file with environment variables for object storage")
	fs.StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.BoolVar(&g.json, "json", false, "print results as JSON")
	fs.IntVar(&g.workers, "workers", 0, "parallel article workers (0 = GOMAXPROCS)")
	fs.IntVar(&g.batchSize, "batch-size", 100, "directory entries per import batch")
	fs.StringVar(&g.cacheSize, "cache", "64MiB", "decompressed cluster cache size")
	fs.StringVar(&g.ioLimit, "io-limit", "", "archive read limit per second, e.g. 50MB (empty = unlimited)")
	fs.StringVar(&g.policy, "policy", "", "YAML file with the link policy")
	fs.StringVar(&g.compression, "compression", "zstd", "session compression (none, lz4, zstd)")
	fs.StringVar(&g.manifest, "manifest-codec", "cbor", "session manifest encoding (cbor, json, go-json)")
	fs.Uint64Var(&g.seed, "seed", 0, "random seed (0 = random)")
	return fs
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "zimgraph",
		Short:         "Explore the link graph of a ZIM archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.loadEnv(cmd.Flags().Changed("env-file"))
		},
	}
	root.PersistentFlags().AddFlagSet(g.flags())

	root.AddCommand(
		newImportCmd(g),
		newExpandCmd(g),
		newClosestCmd(g),
		newPathCmd(g),
		newListCmd(g),
		newInfoCmd(g),
		newExportCmd(g),
	)
	return root
}

// loadEnv reads the env file. A missing default file is not an error.
func (g *globalOptions) loadEnv(explicit bool) error {
	if g.envFile == "" {
		return nil
	}
	err := godotenv.Load(g.envFile)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// graphOptions translates the global flags into Graph options.
func (g *globalOptions) graphOptions() ([]zimgraph.Option, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	cache, err := humanize.ParseBytes(g.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("--cache: %w", err)
	}
	comp, err := persistence.ParseCompression(g.compression)
	if err != nil {
		return nil, fmt.Errorf("--compression: %w", err)
	}
	mc, ok := codec.ByName(g.manifest)
	if !ok {
		return nil, fmt.Errorf("--manifest-codec: unknown codec %q", g.manifest)
	}

	opts := []zimgraph.Option{
		zimgraph.WithLogLevel(level),
		zimgraph.WithWorkers(g.workers),
		zimgraph.WithBatchSize(g.batchSize),
		zimgraph.WithClusterCacheBytes(int64(cache)),
		zimgraph.WithCompression(comp),
		zimgraph.WithManifestCodec(mc),
	}
	if g.ioLimit != "" {
		limit, err := humanize.ParseBytes(g.ioLimit)
		if err != nil {
			return nil, fmt.Errorf("--io-limit: %w", err)
		}
		opts = append(opts, zimgraph.WithIOLimit(int64(limit)))
	}
	if g.policy != "" {
		p, err := loadPolicy(g.policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, zimgraph.WithLinkPolicy(p))
	}
	if g.seed != 0 {
		opts = append(opts, zimgraph.WithRand(rand.New(rand.NewPCG(g.seed, g.seed))))
	}
	return opts, nil
}

func loadPolicy(path string) (links.Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return links.Policy{}, fmt.Errorf("--policy: %w", err)
	}
	defer f.Close()
	p, err := links.LoadPolicy(f)
	if err != nil {
		return links.Policy{}, fmt.Errorf("--policy %s: %w", path, err)
	}
	return p, nil
}

// open opens the archive and, if load is set, the session.
func (g *globalOptions) open(ctx context.Context, archive string, load bool, extra ...zimgraph.Option) (*zimgraph.Graph, func(), error) {
	opts, err := g.graphOptions()
	if err != nil {
		return nil, nil, err
	}
	graph, closeFn, err := openArchive(ctx, archive, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	if load {
		store, err := g.sessionStore(ctx)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		if _, err := graph.Load(ctx, store); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("load session %s: %w", g.session, err)
		}
	}
	return graph, closeFn, nil
}
