package multipart

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/objectfs/objectfs/internal/bucket"
	"github.com/objectfs/objectfs/internal/content"
	"github.com/objectfs/objectfs/internal/engine"
	"github.com/objectfs/objectfs/internal/idgen"
	"github.com/objectfs/objectfs/internal/keylock"
	"github.com/objectfs/objectfs/internal/lock"
	"github.com/objectfs/objectfs/internal/store"
	"github.com/objectfs/objectfs/internal/surface"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *engine.Engine, *bucket.Registry) {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cb, err := content.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	registry := bucket.New(s)
	e := engine.New(s, registry, keylock.New(), lock.New(s), idgen.NewGenerator(), cb, nil)
	return New(s, cb, e), e, registry
}

func TestCompleteAssemblesPartsInOrder(t *testing.T) {
	c, e, registry := newTestCoordinator(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	upload, err := c.Initiate(ctx, "b1", "big.bin", "application/octet-stream", nil)
	require.NoError(t, err)

	p1, err := c.UploadPart(ctx, upload.UploadID, 1, bytes.NewBufferString("hello-"))
	require.NoError(t, err)
	p2, err := c.UploadPart(ctx, upload.UploadID, 2, bytes.NewBufferString("world"))
	require.NoError(t, err)

	res, err := c.Complete(ctx, upload.UploadID, []PartInput{
		{PartNumber: 1, ETag: p1.ETag},
		{PartNumber: 2, ETag: p2.ETag},
	})
	require.NoError(t, err)
	require.Contains(t, res.ETag, "-2")

	got, err := e.Get(ctx, &surface.GetRequest{RequestMeta: surface.RequestMeta{Bucket: "b1", Key: "big.bin"}})
	require.NoError(t, err)
	data, err := io.ReadAll(got.Body)
	got.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "hello-world", string(data))
}

func TestCompleteRejectsNonAscendingParts(t *testing.T) {
	c, _, registry := newTestCoordinator(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	upload, err := c.Initiate(ctx, "b1", "k", "", nil)
	require.NoError(t, err)
	p1, err := c.UploadPart(ctx, upload.UploadID, 2, bytes.NewBufferString("a"))
	require.NoError(t, err)
	p2, err := c.UploadPart(ctx, upload.UploadID, 1, bytes.NewBufferString("b"))
	require.NoError(t, err)

	_, err = c.Complete(ctx, upload.UploadID, []PartInput{
		{PartNumber: 2, ETag: p1.ETag},
		{PartNumber: 1, ETag: p2.ETag},
	})
	require.ErrorIs(t, err, ErrInvalidPart)
}

func TestCompleteRejectsETagMismatch(t *testing.T) {
	c, _, registry := newTestCoordinator(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	upload, err := c.Initiate(ctx, "b1", "k", "", nil)
	require.NoError(t, err)
	_, err = c.UploadPart(ctx, upload.UploadID, 1, bytes.NewBufferString("a"))
	require.NoError(t, err)

	_, err = c.Complete(ctx, upload.UploadID, []PartInput{{PartNumber: 1, ETag: "wrong"}})
	require.ErrorIs(t, err, ErrInvalidPart)
}

func TestUploadPartRejectsOutOfRangeNumber(t *testing.T) {
	c, _, registry := newTestCoordinator(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	upload, err := c.Initiate(ctx, "b1", "k", "", nil)
	require.NoError(t, err)

	_, err = c.UploadPart(ctx, upload.UploadID, 0, bytes.NewBufferString("a"))
	require.ErrorIs(t, err, ErrInvalidPartNumber)
	_, err = c.UploadPart(ctx, upload.UploadID, 10001, bytes.NewBufferString("a"))
	require.ErrorIs(t, err, ErrInvalidPartNumber)
}

func TestAbortRemovesUploadAndParts(t *testing.T) {
	c, _, registry := newTestCoordinator(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	upload, err := c.Initiate(ctx, "b1", "k", "", nil)
	require.NoError(t, err)
	_, err = c.UploadPart(ctx, upload.UploadID, 1, bytes.NewBufferString("a"))
	require.NoError(t, err)

	require.NoError(t, c.Abort(ctx, upload.UploadID))

	_, err = c.store.GetUpload(ctx, upload.UploadID)
	require.ErrorIs(t, err, store.ErrUploadNotFound)
}
