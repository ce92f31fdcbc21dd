// Package zimtest builds small, well-formed ZIM archives for tests.
package zimtest

import (
	"bytes"
	"cmp"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec selects how a cluster is compressed.
type Codec uint8

const (
	Stored Codec = 1
	XZ     Codec = 4
	Zstd   Codec = 5
)

const (
	mimeRedirect uint16 = 0xFFFF
	noPage       uint32 = 0xFFFFFFFF
	headerSize          = 80
)

type cluster struct {
	codec    Codec
	extended bool
	blobs    [][]byte
}

type entry struct {
	ns       byte
	path     string
	title    string
	mime     string
	redirect string // "<ns>/<path>" of the target
	cluster  uint32
	blob     uint32
}

// Builder accumulates entries and clusters and serializes them.
type Builder struct {
	Major uint16
	Minor uint16
	UUID  uuid.UUID

	clusters []*cluster
	entries  []entry
	mainPage string
}

// New returns a Builder for a version 6.1 archive.
func New() *Builder {
	return &Builder{
		Major: 6,
		Minor: 1,
		UUID:  uuid.MustParse("6c1e0b5a-2f7e-4a4b-9d0e-3b4c5d6e7f80"),
	}
}

// AddCluster appends an empty cluster and returns its number.
// Extended clusters use 8-byte blob offsets.
func (b *Builder) AddCluster(codec Codec, extended bool) int {
	b.clusters = append(b.clusters, &cluster{codec: codec, extended: extended})
	return len(b.clusters) - 1
}

// AddArticle stores content as a new blob in cluster c.
func (b *Builder) AddArticle(c int, ns byte, path, title, mime string, content []byte) {
	cl := b.clusters[c]
	cl.blobs = append(cl.blobs, content)
	b.entries = append(b.entries, entry{
		ns:      ns,
		path:    path,
		title:   title,
		mime:    mime,
		cluster: uint32(c),
		blob:    uint32(len(cl.blobs) - 1),
	})
}

// AddHTML is AddArticle in the content namespace with a text/html body.
func (b *Builder) AddHTML(c int, path, title, body string) {
	b.AddArticle(c, 'C', path, title, "text/html", []byte(body))
}

// AddMetadata stores M/<name> in cluster c.
func (b *Builder) AddMetadata(c int, name, value string) {
	b.AddArticle(c, 'M', name, "", "text/plain", []byte(value))
}

// AddRedirect adds a redirect to the entry at targetNS/targetPath.
func (b *Builder) AddRedirect(ns byte, path, title string, targetNS byte, targetPath string) {
	b.entries = append(b.entries, entry{
		ns:       ns,
		path:     path,
		title:    title,
		redirect: string([]byte{targetNS, '/'}) + targetPath,
	})
}

// AddEntryRef adds a content entry pointing at an arbitrary cluster and
// blob, which need not exist.
func (b *Builder) AddEntryRef(ns byte, path, mime string, cluster, blob uint32) {
	b.entries = append(b.entries, entry{ns: ns, path: path, mime: mime, cluster: cluster, blob: blob})
}

// SetMainPage designates the main page.
func (b *Builder) SetMainPage(ns byte, path string) {
	b.mainPage = string([]byte{ns, '/'}) + path
}

func (e entry) key() string { return string([]byte{e.ns, '/'}) + e.path }

func (e entry) titleOrPath() string {
	if e.title != "" {
		return e.title
	}
	return e.path
}

// Bytes serializes the archive.
func (b *Builder) Bytes() ([]byte, error) {
	entries := slices.Clone(b.entries)
	slices.SortStableFunc(entries, func(x, y entry) int {
		return cmp.Or(cmp.Compare(x.ns, y.ns), cmp.Compare(x.path, y.path))
	})

	index := make(map[string]uint32, len(entries))
	var mimes []string
	mimeIndex := map[string]uint16{}
	for i, e := range entries {
		if _, dup := index[e.key()]; dup {
			return nil, fmt.Errorf("zimtest: duplicate entry %s", e.key())
		}
		index[e.key()] = uint32(i)
		if e.redirect == "" {
			if _, ok := mimeIndex[e.mime]; !ok {
				mimeIndex[e.mime] = uint16(len(mimes))
				mimes = append(mimes, e.mime)
			}
		}
	}

	titleOrder := make([]uint32, len(entries))
	for i := range titleOrder {
		titleOrder[i] = uint32(i)
	}
	slices.SortStableFunc(titleOrder, func(x, y uint32) int {
		ex, ey := entries[x], entries[y]
		return cmp.Or(cmp.Compare(ex.ns, ey.ns), cmp.Compare(ex.titleOrPath(), ey.titleOrPath()))
	})

	le := binary.LittleEndian

	var mimeList bytes.Buffer
	for _, m := range mimes {
		mimeList.WriteString(m)
		mimeList.WriteByte(0)
	}
	mimeList.WriteByte(0)

	var dirents bytes.Buffer
	direntOffsets := make([]int, len(entries))
	for i, e := range entries {
		direntOffsets[i] = dirents.Len()
		var fixed [8]byte
		if e.redirect != "" {
			le.PutUint16(fixed[0:], mimeRedirect)
		} else {
			le.PutUint16(fixed[0:], mimeIndex[e.mime])
		}
		fixed[3] = e.ns
		dirents.Write(fixed[:])
		if e.redirect != "" {
			target, ok := index[e.redirect]
			if !ok {
				return nil, fmt.Errorf("zimtest: redirect %s to missing %s", e.key(), e.redirect)
			}
			dirents.Write(le.AppendUint32(nil, target))
		} else {
			dirents.Write(le.AppendUint32(nil, e.cluster))
			dirents.Write(le.AppendUint32(nil, e.blob))
		}
		dirents.WriteString(e.path)
		dirents.WriteByte(0)
		if e.title != "" && e.title != e.path {
			dirents.WriteString(e.title)
		}
		dirents.WriteByte(0)
	}

	rawClusters := make([][]byte, len(b.clusters))
	for i, c := range b.clusters {
		raw, err := c.encode()
		if err != nil {
			return nil, err
		}
		rawClusters[i] = raw
	}

	n := len(entries)
	mimeListPos := headerSize
	urlPtrPos := mimeListPos + mimeList.Len()
	titlePtrPos := urlPtrPos + 8*n
	direntPos := titlePtrPos + 4*n
	clusterPtrPos := direntPos + dirents.Len()
	clusterPos := clusterPtrPos + 8*len(rawClusters)

	var out bytes.Buffer
	header := make([]byte, headerSize)
	le.PutUint32(header[0:], 0x044D495A)
	le.PutUint16(header[4:], b.Major)
	le.PutUint16(header[6:], b.Minor)
	copy(header[8:24], b.UUID[:])
	le.PutUint32(header[24:], uint32(n))
	le.PutUint32(header[28:], uint32(len(rawClusters)))
	le.PutUint64(header[32:], uint64(urlPtrPos))
	le.PutUint64(header[40:], uint64(titlePtrPos))
	le.PutUint64(header[48:], uint64(clusterPtrPos))
	le.PutUint64(header[56:], uint64(mimeListPos))
	mainIdx := noPage
	if b.mainPage != "" {
		idx, ok := index[b.mainPage]
		if !ok {
			return nil, fmt.Errorf("zimtest: main page %s missing", b.mainPage)
		}
		mainIdx = idx
	}
	le.PutUint32(header[64:], mainIdx)
	le.PutUint32(header[68:], noPage)
	// Checksum position is patched once the cluster sizes are known.
	out.Write(header)
	out.Write(mimeList.Bytes())
	for _, off := range direntOffsets {
		out.Write(le.AppendUint64(nil, uint64(direntPos+off)))
	}
	for _, idx := range titleOrder {
		out.Write(le.AppendUint32(nil, idx))
	}
	out.Write(dirents.Bytes())
	pos := clusterPos
	for _, raw := range rawClusters {
		out.Write(le.AppendUint64(nil, uint64(pos)))
		pos += len(raw)
	}
	for _, raw := range rawClusters {
		out.Write(raw)
	}

	data := out.Bytes()
	le.PutUint64(data[72:], uint64(len(data)))
	sum := md5.Sum(data)
	return append(data, sum[:]...), nil
}

func (c *cluster) encode() ([]byte, error) {
	width := 4
	flags := byte(c.codec)
	if c.extended {
		width = 8
		flags |= 0x10
	}

	var body bytes.Buffer
	off := width * (len(c.blobs) + 1)
	put := func(v int) {
		if c.extended {
			body.Write(binary.LittleEndian.AppendUint64(nil, uint64(v)))
		} else {
			body.Write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
		}
	}
	for _, blob := range c.blobs {
		put(off)
		off += len(blob)
	}
	put(off)
	for _, blob := range c.blobs {
		body.Write(blob)
	}

	out := []byte{flags}
	switch c.codec {
	case Stored:
		return append(out, body.Bytes()...), nil
	case XZ:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body.Bytes()); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return append(out, buf.Bytes()...), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(body.Bytes(), out), nil
	default:
		return nil, fmt.Errorf("zimtest: unknown codec %d", c.codec)
	}
}

// MustBytes is Bytes that panics on error.
func (b *Builder) MustBytes() []byte {
	data, err := b.Bytes()
	if err != nil {
		panic(err)
	}
	return data
}
