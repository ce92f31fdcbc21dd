package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/codec"
)

// Default artifact names.
const (
	DefaultVocabularyName = "wiki-interner"
	DefaultGraphName      = "wiki-graph"
	DefaultManifestName   = "wiki-manifest"
)

// Snapshot is the in-memory form of a session.
type Snapshot struct {
	// Vocabulary holds the interned strings in key order.
	Vocabulary []string
	// Pages holds the key-to-Page mapping.
	Pages []PageRecord
	// ArchiveUUID identifies the archive the graph was built from.
	ArchiveUUID uuid.UUID
}

// Options configures Save and Load.
type Options struct {
	VocabularyName string
	GraphName      string
	ManifestName   string

	// Compression applies to both artifacts on Save.
	Compression Compression

	// ManifestCodec encodes the manifest on Save. Load picks the codec
	// named in the stored manifest.
	ManifestCodec codec.Codec

	// SkipManifest saves without a manifest. Load then cannot verify that
	// the artifacts belong together.
	SkipManifest bool

	// RequireManifest makes Load fail when no manifest exists.
	RequireManifest bool

	// ExpectArchive, if set, makes Load fail for sessions built from a
	// different archive.
	ExpectArchive uuid.UUID

	Logger *slog.Logger
}

// WithCompression sets the artifact compression.
func WithCompression(c Compression) func(*Options) {
	return func(o *Options) { o.Compression = c }
}

// WithManifestCodec sets the codec of saved manifests.
func WithManifestCodec(c codec.Codec) func(*Options) {
	return func(o *Options) { o.ManifestCodec = c }
}

// WithNames overrides the artifact names.
func WithNames(vocabulary, graph, manifest string) func(*Options) {
	return func(o *Options) {
		o.VocabularyName = vocabulary
		o.GraphName = graph
		o.ManifestName = manifest
	}
}

// WithExpectedArchive rejects sessions of other archives on Load.
func WithExpectedArchive(id uuid.UUID) func(*Options) {
	return func(o *Options) { o.ExpectArchive = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(optFns []func(*Options)) Options {
	o := Options{
		VocabularyName: DefaultVocabularyName,
		GraphName:      DefaultGraphName,
		ManifestName:   DefaultManifestName,
		Compression:    CompressionZstd,
		ManifestCodec:  codec.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.ManifestCodec == nil {
		o.ManifestCodec = codec.Default
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Save writes snap to store. The manifest is written after both
// artifacts. With SkipManifest an existing manifest is deleted first, so
// it cannot describe the new artifacts wrongly.
func Save(ctx context.Context, store blobstore.BlobStore, snap *Snapshot, optFns ...func(*Options)) (*Manifest, error) {
	o := buildOptions(optFns)
	start := time.Now()

	vocab, err := encodeArtifact(MagicVocabulary, EncodeVocabulary(snap.Vocabulary), o.Compression)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode vocabulary: %w", err)
	}
	graph, err := encodeArtifact(MagicGraph, EncodeGraph(len(snap.Vocabulary), snap.Pages), o.Compression)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode graph: %w", err)
	}

	if o.SkipManifest {
		if err := store.Delete(ctx, o.ManifestName); err != nil {
			return nil, fmt.Errorf("persistence: delete %s: %w", o.ManifestName, err)
		}
	}
	if err := store.Put(ctx, o.VocabularyName, vocab); err != nil {
		return nil, fmt.Errorf("persistence: write %s: %w", o.VocabularyName, err)
	}
	if err := store.Put(ctx, o.GraphName, graph); err != nil {
		return nil, fmt.Errorf("persistence: write %s: %w", o.GraphName, err)
	}

	links := 0
	for _, r := range snap.Pages {
		links += r.Page.Len()
	}
	m := &Manifest{
		Version:     ManifestVersion,
		ArchiveUUID: snap.ArchiveUUID,
		CreatedAt:   time.Now().UTC(),
		Compression: o.Compression.String(),
		Vocabulary:  describe(o.VocabularyName, vocab),
		Graph:       describe(o.GraphName, graph),
		Strings:     len(snap.Vocabulary),
		Pages:       len(snap.Pages),
		Links:       links,
	}

	if !o.SkipManifest {
		b, err := encodeManifest(m, o.ManifestCodec)
		if err != nil {
			return nil, fmt.Errorf("persistence: encode manifest: %w", err)
		}
		if err := store.Put(ctx, o.ManifestName, b); err != nil {
			return nil, fmt.Errorf("persistence: write %s: %w", o.ManifestName, err)
		}
	}

	o.Logger.DebugContext(ctx, "session saved",
		"strings", m.Strings, "pages", m.Pages, "bytes", m.Vocabulary.Size+m.Graph.Size, "duration", time.Since(start))
	return m, nil
}

// Load reads a session from store. The vocabulary is decoded before the
// graph so every key can be checked against it. The returned manifest is
// nil when the session has none.
func Load(ctx context.Context, store blobstore.BlobStore, optFns ...func(*Options)) (*Snapshot, *Manifest, error) {
	o := buildOptions(optFns)

	m, err := readManifest(ctx, store, o)
	if err != nil {
		return nil, nil, err
	}
	if m != nil && o.ExpectArchive != uuid.Nil && m.ArchiveUUID != o.ExpectArchive {
		return nil, nil, fmt.Errorf("%w: session belongs to %s, archive is %s", ErrArchiveMismatch, m.ArchiveUUID, o.ExpectArchive)
	}

	vocabName, graphName := o.VocabularyName, o.GraphName
	if m != nil {
		vocabName, graphName = m.Vocabulary.Name, m.Graph.Name
	}

	raw, err := readArtifact(ctx, store, vocabName, MagicVocabulary, m, func(m *Manifest) ArtifactInfo { return m.Vocabulary })
	if err != nil {
		return nil, nil, err
	}
	vocab, err := DecodeVocabulary(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: %s: %w", vocabName, err)
	}

	raw, err = readArtifact(ctx, store, graphName, MagicGraph, m, func(m *Manifest) ArtifactInfo { return m.Graph })
	if err != nil {
		return nil, nil, err
	}
	pages, err := DecodeGraph(raw, len(vocab))
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: %s: %w", graphName, err)
	}

	snap := &Snapshot{Vocabulary: vocab, Pages: pages}
	if m != nil {
		snap.ArchiveUUID = m.ArchiveUUID
		if m.Strings != len(vocab) || m.Pages != len(pages) {
			return nil, nil, fmt.Errorf("%w: manifest counts %d/%d, artifacts hold %d/%d",
				ErrCorrupt, m.Strings, m.Pages, len(vocab), len(pages))
		}
	}
	o.Logger.DebugContext(ctx, "session loaded", "strings", len(vocab), "pages", len(pages))
	return snap, m, nil
}

func readManifest(ctx context.Context, store blobstore.BlobStore, o Options) (*Manifest, error) {
	if o.SkipManifest {
		return nil, nil
	}
	b, err := blobstore.ReadAll(ctx, store, o.ManifestName)
	if errors.Is(err, blobstore.ErrNotFound) && !o.RequireManifest {
		o.Logger.WarnContext(ctx, "session has no manifest; artifacts are not cross-checked", "name", o.ManifestName)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", o.ManifestName, err)
	}
	return decodeManifest(b)
}

func readArtifact(ctx context.Context, store blobstore.BlobStore, name string, magic uint32, m *Manifest, info func(*Manifest) ArtifactInfo) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", name, err)
	}
	if m != nil {
		if err := info(m).verify(data); err != nil {
			return nil, err
		}
	}
	raw, err := decodeArtifact(magic, data)
	if err != nil {
		return nil, fmt.Errorf("persistence: %s: %w", name, err)
	}
	return raw, nil
}
