package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "graphs/wiki-graph"
	data := []byte("hello world, this is a test blob")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "graphs", "wiki-graph"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	rr, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	content, err := io.ReadAll(rr)
	require.NoError(t, err)
	require.NoError(t, rr.Close())
	require.Equal(t, "this", string(content))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	mapped, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, mapped)

	require.NoError(t, store.Put(ctx, "graphs/wiki-interner", []byte("vocab")))

	names, err := store.List(ctx, "graphs/")
	require.NoError(t, err)
	require.Equal(t, []string{"graphs/wiki-graph", "graphs/wiki-interner"}, names)

	require.NoError(t, store.Delete(ctx, "graphs/wiki-interner"))
	require.NoError(t, store.Delete(ctx, "graphs/wiki-interner"), "deleting twice is not an error")

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{blobName}, names)

	_, err = store.Open(ctx, "graphs/wiki-interner")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "boundary.bin", []byte("0123456789")))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	require.Equal(t, "0123456789", string(content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))

	_, err = blob.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
}

func TestLocalBlobStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestReadAll(t *testing.T) {
	ctx := context.Background()

	local := NewLocalStore(t.TempDir())
	require.NoError(t, local.Put(ctx, "a", []byte("alpha")))

	mem := NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "a", []byte("alpha")))

	for _, store := range []BlobStore{local, mem} {
		data, err := ReadAll(ctx, store, "a")
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(data))

		_, err = ReadAll(ctx, store, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
