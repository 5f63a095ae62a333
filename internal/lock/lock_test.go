package lock

import (
	"context"
	"testing"
	"time"

	"github.com/objectfs/objectfs/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedVersion(t *testing.T, s store.Store, bucket, key, versionID string, isHead bool) {
	t.Helper()
	ctx := context.Background()
	rec := &store.ObjectRecord{Bucket: bucket, Key: key, VersionID: versionID, LastModified: time.Now()}
	if isHead {
		require.NoError(t, s.PutHeadAndArchive(ctx, rec, nil))
	} else {
		head := &store.ObjectRecord{Bucket: bucket, Key: key, VersionID: "head-placeholder", LastModified: time.Now()}
		require.NoError(t, s.PutHeadAndArchive(ctx, head, rec))
	}
}

func TestCanDestroyNoRetention(t *testing.T) {
	e := New(newTestStore(t))
	rec := &store.ObjectRecord{}
	require.True(t, e.CanDestroy(rec, false))
}

func TestCanDestroyComplianceBlocks(t *testing.T) {
	e := New(newTestStore(t))
	rec := &store.ObjectRecord{Retention: &store.Retention{Mode: store.RetentionCompliance, RetainUntilDate: time.Now().Add(24 * time.Hour)}}
	require.False(t, e.CanDestroy(rec, false))
	require.False(t, e.CanDestroy(rec, true), "compliance has no bypass")
}

func TestCanDestroyGovernanceBypass(t *testing.T) {
	e := New(newTestStore(t))
	rec := &store.ObjectRecord{Retention: &store.Retention{Mode: store.RetentionGovernance, RetainUntilDate: time.Now().Add(24 * time.Hour)}}
	require.False(t, e.CanDestroy(rec, false))
	require.True(t, e.CanDestroy(rec, true))
}

func TestCanDestroyLegalHoldBlocksRegardlessOfRetention(t *testing.T) {
	e := New(newTestStore(t))
	rec := &store.ObjectRecord{LegalHold: store.LegalHoldOn}
	require.False(t, e.CanDestroy(rec, true))
}

func TestCanDestroyExpiredRetention(t *testing.T) {
	e := New(newTestStore(t))
	rec := &store.ObjectRecord{Retention: &store.Retention{Mode: store.RetentionCompliance, RetainUntilDate: time.Now().Add(-time.Hour)}}
	require.True(t, e.CanDestroy(rec, false))
}

func TestPutRetentionComplianceExtendOnly(t *testing.T) {
	s := newTestStore(t)
	e := New(s)
	ctx := context.Background()
	require.NoError(t, s.CreateBucket(ctx, &store.Bucket{Name: "b", Versioning: store.VersioningEnabled}))
	seedVersion(t, s, "b", "k", "v1", true)

	until := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, e.PutRetention(ctx, "b", "k", "v1", &store.Retention{Mode: store.RetentionCompliance, RetainUntilDate: until}, false))

	shorter := &store.Retention{Mode: store.RetentionCompliance, RetainUntilDate: until.Add(-time.Hour)}
	err := e.PutRetention(ctx, "b", "k", "v1", shorter, false)
	require.ErrorIs(t, err, ErrCannotShortenCompliance)

	longer := &store.Retention{Mode: store.RetentionCompliance, RetainUntilDate: until.Add(time.Hour)}
	require.NoError(t, e.PutRetention(ctx, "b", "k", "v1", longer, false))
}

func TestPutLegalHoldTogglesFreely(t *testing.T) {
	s := newTestStore(t)
	e := New(s)
	ctx := context.Background()
	require.NoError(t, s.CreateBucket(ctx, &store.Bucket{Name: "b", Versioning: store.VersioningEnabled}))
	seedVersion(t, s, "b", "k", "v1", true)

	require.NoError(t, e.PutLegalHold(ctx, "b", "k", "v1", store.LegalHoldOn))
	status, err := e.GetLegalHold(ctx, "b", "k", "v1")
	require.NoError(t, err)
	require.Equal(t, store.LegalHoldOn, status)

	require.NoError(t, e.PutLegalHold(ctx, "b", "k", "v1", store.LegalHoldOff))
	status, err = e.GetLegalHold(ctx, "b", "k", "v1")
	require.NoError(t, err)
	require.Equal(t, store.LegalHoldOff, status)
}
