package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPebbleStore(t *testing.T) *PebbleStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewPebbleStore(PebbleOptions{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewBadgerStore(BadgerOptions{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStoreBucketLifecycle(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetBucket(ctx, "missing")
	require.ErrorIs(t, err, ErrBucketNotFound)

	b := &Bucket{Name: "b1", CreatedAt: time.Now(), Versioning: VersioningUnconfigured}
	require.NoError(t, s.CreateBucket(ctx, b))

	err = s.CreateBucket(ctx, b)
	require.ErrorIs(t, err, ErrBucketAlreadyExists)

	got, err := s.GetBucket(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "b1", got.Name)

	got.Versioning = VersioningEnabled
	require.NoError(t, s.UpdateBucket(ctx, got))

	got2, err := s.GetBucket(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, VersioningEnabled, got2.Versioning)

	list, err := s.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteBucket(ctx, "b1"))
	_, err = s.GetBucket(ctx, "b1")
	require.ErrorIs(t, err, ErrBucketNotFound)
}

func TestPebbleStoreBucketLifecycle(t *testing.T) {
	testStoreBucketLifecycle(t, newTestPebbleStore(t))
}

func TestBadgerStoreBucketLifecycle(t *testing.T) {
	testStoreBucketLifecycle(t, newTestBadgerStore(t))
}

func testStoreObjectVersioning(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateBucket(ctx, &Bucket{Name: "b1", Versioning: VersioningEnabled}))

	head1 := &ObjectRecord{Bucket: "b1", Key: "k", VersionID: "v1", ETag: "e1", LastModified: time.Now()}
	require.NoError(t, s.PutHeadAndArchive(ctx, head1, nil))

	head2 := &ObjectRecord{Bucket: "b1", Key: "k", VersionID: "v2", ETag: "e2", LastModified: time.Now().Add(time.Second)}
	archive1 := head1.Clone()
	require.NoError(t, s.PutHeadAndArchive(ctx, head2, archive1))

	got, err := s.GetObject(ctx, "b1", "k")
	require.NoError(t, err)
	require.Equal(t, "v2", got.VersionID)

	versions, err := s.ListVersions(ctx, "b1", "k")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "v1", versions[0].VersionID)

	v1, err := s.GetVersion(ctx, "b1", "k", "v1")
	require.NoError(t, err)
	require.Equal(t, "e1", v1.ETag)
}

func TestPebbleStoreObjectVersioning(t *testing.T) {
	testStoreObjectVersioning(t, newTestPebbleStore(t))
}

func TestBadgerStoreObjectVersioning(t *testing.T) {
	testStoreObjectVersioning(t, newTestBadgerStore(t))
}

func testStoreRawScanPrefix(t *testing.T, s Store) {
	ctx := context.Background()
	sets := map[string][]byte{
		"object::b1::a": []byte("1"),
		"object::b1::b": []byte("2"),
		"object::b2::c": []byte("3"),
	}
	require.NoError(t, s.RawBatch(ctx, sets, nil))

	var keys []string
	require.NoError(t, s.RawScan(ctx, "object::b1::", "", func(k string, _ []byte) bool {
		keys = append(keys, k)
		return true
	}))
	require.Len(t, keys, 2)
}

func TestPebbleStoreRawScanPrefix(t *testing.T) {
	testStoreRawScanPrefix(t, newTestPebbleStore(t))
}

func TestBadgerStoreRawScanPrefix(t *testing.T) {
	testStoreRawScanPrefix(t, newTestBadgerStore(t))
}
