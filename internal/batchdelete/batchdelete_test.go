package batchdelete

import (
	"bytes"
	"context"
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

func newTestEngine(t *testing.T) (*engine.Engine, *bucket.Registry) {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cb, err := content.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	registry := bucket.New(s)
	e := engine.New(s, registry, keylock.New(), lock.New(s), idgen.NewGenerator(), cb, nil)
	return e, registry
}

func TestDeleteRemovesAllEntries(t *testing.T) {
	e, registry := newTestEngine(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		_, err := e.Put(ctx, &surface.PutRequest{
			RequestMeta: surface.RequestMeta{Bucket: "b1", Key: k},
			Body:        bytes.NewBufferString("x"),
		})
		require.NoError(t, err)
	}

	d := New(e)
	var entries []Entry
	for _, k := range keys {
		entries = append(entries, Entry{Key: k})
	}

	outcomes, err := d.Delete(ctx, "b1", entries, false, false)
	require.NoError(t, err)
	require.Len(t, outcomes, len(keys))
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}

	for _, k := range keys {
		_, err := e.Get(ctx, &surface.GetRequest{RequestMeta: surface.RequestMeta{Bucket: "b1", Key: k}})
		require.Error(t, err)
	}
}

func TestDeleteQuietOmitsSuccesses(t *testing.T) {
	e, registry := newTestEngine(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	_, err = e.Put(ctx, &surface.PutRequest{RequestMeta: surface.RequestMeta{Bucket: "b1", Key: "a"}, Body: bytes.NewBufferString("x")})
	require.NoError(t, err)

	d := New(e)
	outcomes, err := d.Delete(ctx, "b1", []Entry{{Key: "a"}}, false, true)
	require.NoError(t, err)
	require.Empty(t, outcomes)
}

func TestDeleteRejectsOversizedBatch(t *testing.T) {
	e, registry := newTestEngine(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	entries := make([]Entry, maxBatchSize+1)
	d := New(e)
	_, err = d.Delete(ctx, "b1", entries, false, false)
	require.Error(t, err)
}
