package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/zimgraph"
	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/blobstore/minio"
	"github.com/hupe1980/zimgraph/blobstore/s3"
	"github.com/hupe1980/zimgraph/internal/cache"
)

const (
	remoteBlockSize  = 1 << 20
	remoteCacheBytes = 256 << 20
)

// location is a local path or an object in a bucket.
type location struct {
	scheme string // "", "s3" or "minio"
	bucket string
	key    string
}

func parseLocation(s string) (location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		if s == "" {
			return location{}, errors.New("empty location")
		}
		return location{key: s}, nil
	}
	switch scheme {
	case "s3", "minio":
	default:
		return location{}, fmt.Errorf("unsupported location scheme %q", scheme)
	}
	u, err := url.Parse(scheme + "://" + rest)
	if err != nil {
		return location{}, err
	}
	if u.Host == "" {
		return location{}, fmt.Errorf("%s: missing bucket", s)
	}
	return location{scheme: scheme, bucket: u.Host, key: strings.Trim(u.Path, "/")}, nil
}

func (l location) remote() bool { return l.scheme != "" }

func (l location) String() string {
	if !l.remote() {
		return l.key
	}
	return l.scheme + "://" + l.bucket + "/" + l.key
}

// store returns a blob store rooted at prefix inside the bucket.
func (l location) store(ctx context.Context, prefix string) (blobstore.BlobStore, error) {
	switch l.scheme {
	case "s3":
		var optFns []func(*s3.Options)
		optFns = append(optFns, s3.WithPrefix(prefix))
		if ep := os.Getenv("ZIMGRAPH_S3_ENDPOINT"); ep != "" {
			optFns = append(optFns, s3.WithEndpoint(ep))
		}
		return s3.New(ctx, l.bucket, optFns...)
	case "minio":
		ep := os.Getenv("MINIO_ENDPOINT")
		if ep == "" {
			return nil, errors.New("MINIO_ENDPOINT is not set")
		}
		return minio.New(minio.Config{
			Endpoint:  ep,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:    os.Getenv("MINIO_SECURE") != "false",
			Region:    os.Getenv("MINIO_REGION"),
		}, l.bucket, prefix)
	default:
		return blobstore.NewLocalStore(l.key), nil
	}
}

// openArchive opens a local archive by mapping it and a remote one through
// a block cache of ranged reads.
func openArchive(ctx context.Context, archive string, opts ...zimgraph.Option) (*zimgraph.Graph, func(), error) {
	loc, err := parseLocation(archive)
	if err != nil {
		return nil, nil, err
	}
	if !loc.remote() {
		g, err := zimgraph.OpenFile(ctx, loc.key, opts...)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	}

	inner, err := loc.store(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	bc := cache.NewShardedLRUBlockCache(remoteCacheBytes, nil)
	blob, err := blobstore.NewCachingStore(inner, bc, remoteBlockSize).Open(ctx, loc.key)
	if err != nil {
		_ = bc.Close()
		return nil, nil, fmt.Errorf("open %s: %w", loc, err)
	}
	g, err := zimgraph.Open(ctx, blob, opts...)
	if err != nil {
		_ = blob.Close()
		_ = bc.Close()
		return nil, nil, err
	}
	return g, func() {
		_ = g.Close()
		_ = blob.Close()
		_ = bc.Close()
	}, nil
}

// sessionStore returns the store named by --session.
func (g *globalOptions) sessionStore(ctx context.Context) (blobstore.BlobStore, error) {
	if g.session == "" {
		return nil, errors.New("--session is required")
	}
	loc, err := parseLocation(g.session)
	if err != nil {
		return nil, fmt.Errorf("--session: %w", err)
	}
	return loc.store(ctx, loc.key)
}
