package persistence

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/zimgraph/blobstore"
	"github.com/hupe1980/zimgraph/codec"
	"github.com/hupe1980/zimgraph/model"
)

var archiveID = uuid.MustParse("6c1e0b5a-2f7e-4a4b-9d0e-3b4c5d6e7f80")

func testSnapshot() *Snapshot {
	vocab := []string{"Aspirin", "Pain", "Fever", "Headache", "Nausea"}
	for i := range 200 {
		vocab = append(vocab, fmt.Sprintf("Article %03d", i))
	}
	pages := []PageRecord{
		{Key: 0, Page: model.NewPage([]model.Key{1, 2})},
		{Key: 1, Page: model.NewPage([]model.Key{3})},
		{Key: 2, Page: model.NewPage([]model.Key{0, 4, 1})},
		{Key: 3, Page: model.NewPage(nil)},
	}
	for i := 5; i < len(vocab); i++ {
		pages = append(pages, PageRecord{
			Key:  model.Key(i),
			Page: model.NewPage([]model.Key{0, model.Key(i - 1), model.Key((i * 7) % len(vocab))}),
		})
	}
	return &Snapshot{Vocabulary: vocab, Pages: pages, ArchiveUUID: archiveID}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()
			snap := testSnapshot()

			m, err := Save(ctx, store, snap, WithCompression(c))
			require.NoError(t, err)
			assert.Equal(t, len(snap.Vocabulary), m.Strings)
			assert.Equal(t, len(snap.Pages), m.Pages)
			assert.Equal(t, c.String(), m.Compression)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{DefaultGraphName, DefaultVocabularyName, DefaultManifestName}, names)

			got, gotManifest, err := Load(ctx, store, WithExpectedArchive(archiveID))
			require.NoError(t, err)
			require.NotNil(t, gotManifest)
			assert.Equal(t, m.Graph.Digest, gotManifest.Graph.Digest)
			assert.Equal(t, snap.Vocabulary, got.Vocabulary)
			assert.Equal(t, snap.Pages, got.Pages)
			assert.Equal(t, archiveID, got.ArchiveUUID)
		})
	}
}

func TestSaveLoad_ManifestCodecs(t *testing.T) {
	for _, c := range []codec.Codec{codec.CBOR{}, codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()

			m, err := Save(ctx, store, testSnapshot(), WithManifestCodec(c))
			require.NoError(t, err)

			raw, err := blobstore.ReadAll(ctx, store, DefaultManifestName)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(raw, []byte(c.Name()+"\n")))

			_, got, err := Load(ctx, store, WithExpectedArchive(archiveID))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, m.Graph.Digest, got.Graph.Digest)
			assert.Equal(t, m.Pages, got.Pages)
		})
	}
}

func TestLoad_ArchiveMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	_, err := Save(ctx, store, testSnapshot())
	require.NoError(t, err)

	_, _, err = Load(ctx, store, WithExpectedArchive(uuid.New()))
	assert.ErrorIs(t, err, ErrArchiveMismatch)
}

func TestLoad_WithoutManifest(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	snap := testSnapshot()
	_, err := Save(ctx, store, snap, func(o *Options) { o.SkipManifest = true })
	require.NoError(t, err)

	got, m, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, snap.Vocabulary, got.Vocabulary)

	_, _, err = Load(ctx, store, func(o *Options) { o.RequireManifest = true })
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestSave_WithoutManifestReplacesSession(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	_, err := Save(ctx, store, testSnapshot())
	require.NoError(t, err)

	smaller := &Snapshot{
		Vocabulary:  []string{"Aspirin", "Pain"},
		Pages:       []PageRecord{{Key: 0, Page: model.NewPage([]model.Key{1})}},
		ArchiveUUID: archiveID,
	}
	_, err = Save(ctx, store, smaller, func(o *Options) { o.SkipManifest = true })
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultGraphName, DefaultVocabularyName}, names)

	got, m, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, smaller.Vocabulary, got.Vocabulary)
	assert.Equal(t, smaller.Pages, got.Pages)
}

func TestLoad_CustomNames(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	names := WithNames("s/vocab", "s/graph", "s/manifest")

	_, err := Save(ctx, store, testSnapshot(), names)
	require.NoError(t, err)

	_, _, err = Load(ctx, store)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, _, err = Load(ctx, store, names)
	require.NoError(t, err)
}

func TestLoad_Corruption(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *blobstore.MemoryStore {
		store := blobstore.NewMemoryStore()
		_, err := Save(ctx, store, testSnapshot(), WithCompression(CompressionNone))
		require.NoError(t, err)
		return store
	}
	mutate := func(t *testing.T, store *blobstore.MemoryStore, name string, fn func([]byte)) {
		b, err := blobstore.ReadAll(ctx, store, name)
		require.NoError(t, err)
		fn(b)
		require.NoError(t, store.Put(ctx, name, b))
	}

	t.Run("digest", func(t *testing.T) {
		store := setup(t)
		mutate(t, store, DefaultGraphName, func(b []byte) { b[len(b)-1] ^= 0xff })
		_, _, err := Load(ctx, store)
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	t.Run("checksum", func(t *testing.T) {
		store := setup(t)
		mutate(t, store, DefaultGraphName, func(b []byte) { b[len(b)-1] ^= 0xff })
		_, _, err := Load(ctx, store, func(o *Options) { o.SkipManifest = true })
		assert.True(t, IsChecksumMismatch(err))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("swapped artifacts", func(t *testing.T) {
		store := setup(t)
		_, _, err := Load(ctx, store, func(o *Options) {
			o.SkipManifest = true
			o.VocabularyName = DefaultGraphName
		})
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		store := setup(t)
		mutate(t, store, DefaultVocabularyName, func(b []byte) { b[4] = 9 })
		_, _, err := Load(ctx, store, func(o *Options) { o.SkipManifest = true })
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("vocabulary from another session", func(t *testing.T) {
		store := setup(t)
		other := &Snapshot{Vocabulary: []string{"only"}}
		_, err := Save(ctx, store, other, func(o *Options) {
			o.SkipManifest = true
			o.GraphName = "unused"
		})
		require.NoError(t, err)
		_, _, err = Load(ctx, store, func(o *Options) { o.SkipManifest = true })
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("manifest", func(t *testing.T) {
		store := setup(t)
		for _, raw := range [][]byte{{0xff, 0x00}, []byte("gob\n{}"), []byte("cbor\n\xff")} {
			require.NoError(t, store.Put(ctx, DefaultManifestName, raw))
			_, _, err := Load(ctx, store)
			assert.ErrorIs(t, err, ErrCorrupt, "%q", raw)
		}
	})
}

func TestDecodeGraph_RejectsOutOfRangeKeys(t *testing.T) {
	b := EncodeGraph(3, []PageRecord{{Key: 0, Page: model.NewPage([]model.Key{5})}})
	_, err := DecodeGraph(b, 3)
	assert.ErrorIs(t, err, ErrCorrupt)

	b = EncodeGraph(3, []PageRecord{{Key: 7, Page: model.NewPage(nil)}})
	_, err = DecodeGraph(b, 3)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_Truncated(t *testing.T) {
	snap := testSnapshot()
	vocab := EncodeVocabulary(snap.Vocabulary)
	graph := EncodeGraph(len(snap.Vocabulary), snap.Pages)

	for _, n := range []int{1, len(vocab) / 2, len(vocab) - 1} {
		_, err := DecodeVocabulary(vocab[:n])
		assert.ErrorIs(t, err, ErrCorrupt, "vocabulary cut at %d", n)
	}
	for _, n := range []int{1, len(graph) / 2, len(graph) - 1} {
		_, err := DecodeGraph(graph[:n], len(snap.Vocabulary))
		assert.ErrorIs(t, err, ErrCorrupt, "graph cut at %d", n)
	}

	_, err := DecodeVocabulary(append(bytes.Clone(vocab), 0))
	assert.ErrorIs(t, err, ErrCorrupt, "trailing bytes")

	_, err = decodeArtifact(MagicGraph, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCompression(t *testing.T) {
	text := bytes.Repeat([]byte("Aspirin Pain Fever "), 200)
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		out, used, err := compress(text, c)
		require.NoError(t, err)
		assert.Equal(t, c, used)
		assert.Less(t, len(out), len(text))

		back, err := decompress(out, used, len(text))
		require.NoError(t, err)
		assert.Equal(t, text, back)
	}

	// Tiny inputs do not shrink and are stored as-is.
	out, used, err := compress([]byte{1}, CompressionZstd)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, used)
	assert.Equal(t, []byte{1}, out)

	c, err := ParseCompression("lz4")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, c)
	_, err = ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "unknown(9)", Compression(9).String())
}
