package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"callsync/internal/config"
	"callsync/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewDiskStore(t.TempDir(), "recordings")
	require.NoError(t, err)

	handle, size, err := store.Put(ctx, strings.NewReader("ID3-audio-bytes"), storage.ObjectInfo{
		Name:        "call.mp3",
		ContentType: "audio/mpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), size)

	obj, err := store.Open(ctx, handle)
	require.NoError(t, err)
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())

	assert.Equal(t, "ID3-audio-bytes", string(b))
	assert.Equal(t, int64(15), obj.Size)
	assert.Equal(t, "audio/mpeg", obj.ContentType)
	assert.Equal(t, "call.mp3", obj.Name)

	require.NoError(t, store.Delete(ctx, handle))

	_, err = store.Open(ctx, handle)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, handle), storage.ErrNotFound)
}

func TestDiskStore_RejectsPathTraversal(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir(), "recordings")
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "../x"), storage.ErrNotFound)
}

func TestDiskStore_CancelledPutLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewDiskStore(root, "recordings")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = store.Put(ctx, strings.NewReader("data"), storage.ObjectInfo{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Drivers(t *testing.T) {
	cfg := config.Default().Storage
	cfg.DiskRoot = t.TempDir()

	store, err := storage.New(cfg, nil, "employee_docs")
	require.NoError(t, err)
	assert.NotNil(t, store)

	cfg.Driver = config.StorageDriverGridFS
	_, err = storage.New(cfg, nil, "employee_docs")
	assert.Error(t, err)

	cfg.Driver = "s3"
	_, err = storage.New(cfg, nil, "employee_docs")
	assert.Error(t, err)
}
