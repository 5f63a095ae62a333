package bucket

import (
	"context"
	"testing"

	"github.com/objectfs/objectfs/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, store.Store) {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

func TestEnsureAndExists(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Ensure(ctx, "my-bucket")
	require.NoError(t, err)

	_, err = r.Ensure(ctx, "my-bucket")
	require.ErrorIs(t, err, ErrBucketAlreadyExists)

	_, err = r.Exists(ctx, "my-bucket")
	require.NoError(t, err)

	_, err = r.Exists(ctx, "nope")
	require.ErrorIs(t, err, ErrBucketNotFound)
}

func TestInvalidBucketName(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Ensure(context.Background(), "AB")
	require.ErrorIs(t, err, ErrInvalidBucketName)
}

func TestVersioningMonotonic(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Ensure(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, r.PutVersioning(ctx, "b", store.VersioningEnabled, false))
	require.NoError(t, r.PutVersioning(ctx, "b", store.VersioningSuspended, false))
	require.NoError(t, r.PutVersioning(ctx, "b", store.VersioningEnabled, false))

	err = r.PutVersioning(ctx, "b", store.VersioningUnconfigured, false)
	require.ErrorIs(t, err, ErrInvalidVersioning)
}

func TestObjectLockConfigNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Ensure(ctx, "b")
	require.NoError(t, err)

	_, err = r.GetObjectLockConfig(ctx, "b")
	require.ErrorIs(t, err, ErrObjectLockConfigurationNotFound)

	days := 30
	cfg := &store.ObjectLockConfig{Enabled: true, Mode: store.RetentionGovernance, Days: &days}
	require.NoError(t, r.PutObjectLockConfig(ctx, "b", cfg))

	got, err := r.GetObjectLockConfig(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, store.RetentionGovernance, got.Mode)
}

func TestDeleteRequiresEmpty(t *testing.T) {
	r, s := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.Ensure(ctx, "b")
	require.NoError(t, err)

	empty, err := r.IsEmpty(ctx, "b")
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, s.PutHeadAndArchive(ctx, &store.ObjectRecord{Bucket: "b", Key: "k", VersionID: "null"}, nil))

	empty, err = r.IsEmpty(ctx, "b")
	require.NoError(t, err)
	require.False(t, empty)
	require.ErrorIs(t, r.Delete(ctx, "b"), ErrBucketNotEmpty)
}
