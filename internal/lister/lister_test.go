package lister

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

func newTestHarness(t *testing.T) (*engine.Engine, *Lister, *bucket.Registry) {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cb, err := content.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	registry := bucket.New(s)
	e := engine.New(s, registry, keylock.New(), lock.New(s), idgen.NewGenerator(), cb, nil)
	return e, New(s, registry), registry
}

func putKey(t *testing.T, e *engine.Engine, bucketName, key string) {
	t.Helper()
	_, err := e.Put(context.Background(), &surface.PutRequest{
		RequestMeta: surface.RequestMeta{Bucket: bucketName, Key: key},
		Body:        bytes.NewBufferString("x"),
	})
	require.NoError(t, err)
}

func TestListObjectsGroupsCommonPrefixes(t *testing.T) {
	e, l, registry := newTestHarness(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	putKey(t, e, "b1", "a.txt")
	putKey(t, e, "b1", "dir/one.txt")
	putKey(t, e, "b1", "dir/two.txt")
	putKey(t, e, "b1", "z.txt")

	res, err := l.ListObjects(ctx, "b1", "", "/", "", 1000)
	require.NoError(t, err)
	require.False(t, res.IsTruncated)
	require.ElementsMatch(t, []string{"dir/"}, res.CommonPrefixes)

	var keys []string
	for _, o := range res.Objects {
		keys = append(keys, o.Key)
	}
	require.ElementsMatch(t, []string{"a.txt", "z.txt"}, keys)
}

func TestListObjectsTruncatesAndPaginates(t *testing.T) {
	e, l, registry := newTestHarness(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		putKey(t, e, "b1", k)
	}

	first, err := l.ListObjects(ctx, "b1", "", "", "", 2)
	require.NoError(t, err)
	require.True(t, first.IsTruncated)
	require.Len(t, first.Objects, 2)
	require.Equal(t, "b", first.NextMarker)

	second, err := l.ListObjects(ctx, "b1", "", "", first.NextMarker, 2)
	require.NoError(t, err)
	require.Len(t, second.Objects, 2)
	require.Equal(t, "c", second.Objects[0].Key)
}

func TestListObjectVersionsIncludesArchivedAndDeleteMarkers(t *testing.T) {
	e, l, registry := newTestHarness(t)
	ctx := context.Background()
	_, err := registry.Ensure(ctx, "b1")
	require.NoError(t, err)
	require.NoError(t, registry.PutVersioning(ctx, "b1", store.VersioningEnabled, false))

	putKey(t, e, "b1", "k1")
	putKey(t, e, "b1", "k1")
	_, err = e.Delete(ctx, &surface.DeleteRequest{RequestMeta: surface.RequestMeta{Bucket: "b1", Key: "k1"}})
	require.NoError(t, err)

	res, err := l.ListObjectVersions(ctx, "b1", "", "", "", "", 1000)
	require.NoError(t, err)
	require.Len(t, res.Versions, 3) // two real versions + one delete marker

	var markers, latest int
	for _, v := range res.Versions {
		if v.IsDeleteMarker {
			markers++
		}
		if v.IsLatest {
			latest++
		}
	}
	require.Equal(t, 1, markers)
	require.Equal(t, 1, latest)
}
