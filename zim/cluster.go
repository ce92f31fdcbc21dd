package zim

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/ulikunitz/xz"

	"github.com/hupe1980/zimgraph/internal/cache"
)

// Compression is the codec nibble of a cluster's flags byte.
type Compression uint8

const (
	CompressionDefault Compression = 0
	CompressionNone    Compression = 1
	CompressionZlib    Compression = 2
	CompressionBzip2   Compression = 3
	CompressionXZ      Compression = 4
	CompressionZstd    Compression = 5
)

// extendedFlag selects 8-byte blob offsets.
const extendedFlag = 0x10

func (c Compression) String() string {
	switch c {
	case CompressionDefault, CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// clusterRange returns the byte range of cluster n in the archive.
func (a *Archive) clusterRange(n uint32) (start, end int64, err error) {
	if n >= uint32(len(a.clusterPtrs)) {
		return 0, 0, fmt.Errorf("%w: cluster %d of %d", ErrInvalidEntry, n, len(a.clusterPtrs))
	}
	start = int64(a.clusterPtrs[n])
	if int(n)+1 < len(a.clusterPtrs) {
		end = int64(a.clusterPtrs[n+1])
	} else if a.header.ChecksumPos > 0 {
		end = int64(a.header.ChecksumPos)
	} else {
		end = a.size
	}
	if start >= end || end > a.size {
		return 0, 0, fmt.Errorf("%w: cluster %d spans [%d, %d)", ErrInvalidEntry, n, start, end)
	}
	return start, end, nil
}

// cluster returns the decompressed cluster n prefixed by its flags byte.
// Concurrent callers for the same cluster share one decompression.
func (a *Archive) cluster(ctx context.Context, n uint32) ([]byte, error) {
	key := cache.CacheKey{Kind: cache.CacheKindCluster, Source: a.source, Offset: uint64(n)}
	if b, ok := a.cache.Get(ctx, key); ok {
		return b, nil
	}

	v, err, _ := a.group.Do(strconv.FormatUint(uint64(n), 10), func() (any, error) {
		if b, ok := a.cache.Get(ctx, key); ok {
			return b, nil
		}
		b, err := a.loadCluster(ctx, n)
		if err != nil {
			return nil, err
		}
		a.cache.Set(ctx, key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (a *Archive) loadCluster(ctx context.Context, n uint32) ([]byte, error) {
	start, end, err := a.clusterRange(n)
	if err != nil {
		return nil, err
	}
	raw, err := a.readAt(ctx, start, int(end-start))
	if err != nil {
		return nil, err
	}
	return decodeCluster(raw)
}

// decodeCluster decompresses a raw cluster. The result starts with the
// flags byte, followed by the blob offset table and the blob data.
func decodeCluster(raw []byte) ([]byte, error) {
	flags := raw[0]
	codec := Compression(flags & 0x0f)

	switch codec {
	case CompressionDefault, CompressionNone:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case CompressionXZ:
		r, err := xz.ReaderConfig{SingleStream: true}.NewReader(bytes.NewReader(raw[1:]))
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %w", ErrInvalidEntry, err)
		}
		var buf bytes.Buffer
		buf.Grow(4 * len(raw))
		buf.WriteByte(flags)
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, fmt.Errorf("%w: xz: %w", ErrInvalidEntry, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, &UnsupportedCompressionError{Code: uint8(codec)}
	}
}

// blobFromCluster slices blob i out of a decoded cluster.
func blobFromCluster(cluster []byte, i uint32) ([]byte, error) {
	extended := cluster[0]&extendedFlag != 0
	body := cluster[1:]

	width := uint64(4)
	if extended {
		width = 8
	}
	offsetAt := func(k uint64) uint64 {
		if extended {
			return binary.LittleEndian.Uint64(body[k*8:])
		}
		return uint64(binary.LittleEndian.Uint32(body[k*4:]))
	}

	size := uint64(len(body))
	if size < width {
		return nil, fmt.Errorf("%w: cluster shorter than its offset table", ErrInvalidEntry)
	}
	first := offsetAt(0)
	if first%width != 0 || first < width || first > size {
		return nil, fmt.Errorf("%w: malformed offset table (first offset %d)", ErrInvalidEntry, first)
	}

	blobs := first/width - 1
	if uint64(i) >= blobs {
		return nil, fmt.Errorf("%w: blob %d of %d", ErrInvalidEntry, i, blobs)
	}

	begin, end := offsetAt(uint64(i)), offsetAt(uint64(i)+1)
	if begin < first || begin > end || end > size {
		return nil, fmt.Errorf("%w: blob %d spans [%d, %d) in %d bytes", ErrInvalidEntry, i, begin, end, size)
	}
	return body[begin:end:end], nil
}
