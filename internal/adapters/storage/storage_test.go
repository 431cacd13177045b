package storage_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-lodge-cms/internal/adapters/storage"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store interfaces.ObjectStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "originals/ab/abc/1-lake.jpg", []byte("jpeg"), "image/jpeg"))
	require.NoError(t, store.Put(ctx, "/derived/lg/ab/1.jpg", []byte("lg"), "image/jpeg"))

	data, err := store.Get(ctx, "originals/ab/abc/1-lake.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	data, err = store.Get(ctx, "derived/lg/ab/1.jpg")
	require.NoError(t, err, "leading slash must address the same key")
	assert.Equal(t, []byte("lg"), data)

	_, err = store.Get(ctx, "derived/md/ab/1.jpg")
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)

	assert.ErrorIs(t, store.Put(ctx, "../escape.jpg", []byte("x"), ""), storage.ErrInvalidPath)
	assert.ErrorIs(t, store.Put(ctx, "  ", []byte("x"), ""), storage.ErrInvalidPath)

	require.NoError(t, store.Remove(ctx, "derived/lg/ab/1.jpg", "derived/missing.jpg"))
	_, err = store.Get(ctx, "derived/lg/ab/1.jpg")
	assert.ErrorIs(t, err, interfaces.ErrObjectNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore("https://cdn.lodge.test/media/")
	exerciseStore(t, store)

	assert.Equal(t, "https://cdn.lodge.test/media/originals/ab/abc/1-lake.jpg", store.PublicURL("originals/ab/abc/1-lake.jpg"))
	assert.Equal(t, []string{"originals/ab/abc/1-lake.jpg"}, store.Keys())
	assert.Equal(t, "image/jpeg", store.ContentType("originals/ab/abc/1-lake.jpg"))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := storage.NewMemoryStore("")
	ctx := context.Background()
	payload := []byte("abc")
	require.NoError(t, store.Put(ctx, "a.bin", payload, ""))
	payload[0] = 'z'

	data, err := store.Get(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "/a.bin", store.PublicURL("a.bin"))
}

func TestFSStore(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewFSStore(root, "/media")
	require.NoError(t, err)

	exerciseStore(t, store)
	assert.Equal(t, "/media/derived/xs/ab/1.jpg", store.PublicURL("derived/xs/ab/1.jpg"))
}

func TestFSStoreRequiresRoot(t *testing.T) {
	_, err := storage.NewFSStore("", "")
	assert.Error(t, err)
}
