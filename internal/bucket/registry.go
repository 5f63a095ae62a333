// Package bucket implements BucketRegistry: bucket existence, versioning configuration,
// object-lock configuration, and opaque configuration sub-records.
package bucket

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/objectfs/objectfs/internal/store"
)

// Errors specific to bucket operations. Not-found/already-exists are re-exported from store since
// they originate there; the registry adds the errors that are purely its own business rules.
var (
	ErrBucketNotFound      = store.ErrBucketNotFound
	ErrBucketAlreadyExists = store.ErrBucketAlreadyExists
	ErrBucketNotEmpty      = errors.New("bucket not empty")
	ErrInvalidBucketName   = errors.New("invalid bucket name")
	ErrInvalidVersioning   = errors.New("invalid versioning transition")
	ErrAccessDenied        = errors.New("access denied")
	ErrObjectLockConfigurationNotFound = errors.New("ObjectLockConfigurationNotFoundError")
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9.-]{0,61}[a-z0-9])?$`)

// Registry is the BucketRegistry component (SPEC_FULL §4.2), grounded on the teacher's
// internal/bucket/manager_badger.go get-mutate-update pattern, generalized off the
// tenantID/bucketName path split since spec.md makes bucket names globally unique (§3).
type Registry struct {
	store store.Store
	clock func() time.Time
}

// New returns a Registry backed by the given Store.
func New(s store.Store) *Registry {
	return &Registry{store: s, clock: time.Now}
}

func validateName(name string) error {
	if !bucketNameRe.MatchString(name) {
		return ErrInvalidBucketName
	}
	return nil
}

// Ensure creates a bucket, failing BucketAlreadyExists if present.
func (r *Registry) Ensure(ctx context.Context, name string) (*store.Bucket, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	b := &store.Bucket{Name: name, CreatedAt: r.clock(), Versioning: store.VersioningUnconfigured}
	if err := r.store.CreateBucket(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Exists performs a head check, failing NoSuchBucket if absent.
func (r *Registry) Exists(ctx context.Context, name string) (*store.Bucket, error) {
	return r.store.GetBucket(ctx, name)
}

// CheckExpectedOwner fails AccessDenied if expectedOwner is non-empty and differs from the
// bucket's recorded owner.
func (r *Registry) CheckExpectedOwner(b *store.Bucket, expectedOwner string) error {
	if expectedOwner != "" && expectedOwner != b.ExpectedOwner {
		return ErrAccessDenied
	}
	return nil
}

// Delete removes a bucket record, failing ErrBucketNotEmpty while any CurrentObject or
// VersionRecord is still keyed under the bucket (see IsEmpty).
func (r *Registry) Delete(ctx context.Context, name string) error {
	empty, err := r.IsEmpty(ctx, name)
	if err != nil {
		return err
	}
	if !empty {
		return ErrBucketNotEmpty
	}
	return r.store.DeleteBucket(ctx, name)
}

// IsEmpty reports whether any CurrentObject or VersionRecord exists under the bucket.
func (r *Registry) IsEmpty(ctx context.Context, name string) (bool, error) {
	empty := true
	err := r.store.ScanObjects(ctx, name, "", "", func(*store.ObjectRecord) bool {
		empty = false
		return false
	})
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	err = r.store.ScanAllVersions(ctx, name, "", func(*store.ObjectRecord) bool {
		empty = false
		return false
	})
	if err != nil {
		return false, err
	}
	return empty, nil
}

// PutVersioning applies a versioning-status transition. Unconfigured->Enabled, Enabled<->Suspended
// are legal; Enabled->Unconfigured is not (versioning transitions are monotonic-in-expressiveness,
// spec.md §3).
func (r *Registry) PutVersioning(ctx context.Context, name string, status store.VersioningStatus, mfaDelete bool) error {
	b, err := r.store.GetBucket(ctx, name)
	if err != nil {
		return err
	}
	if b.Versioning != store.VersioningUnconfigured && status == store.VersioningUnconfigured {
		return ErrInvalidVersioning
	}
	b.Versioning = status
	b.MFADelete = mfaDelete
	return r.store.UpdateBucket(ctx, b)
}

// GetVersioning returns the bucket's versioning status and mfa-delete flag.
func (r *Registry) GetVersioning(ctx context.Context, name string) (store.VersioningStatus, bool, error) {
	b, err := r.store.GetBucket(ctx, name)
	if err != nil {
		return "", false, err
	}
	return b.Versioning, b.MFADelete, nil
}

// PutObjectLockConfig sets the bucket's default object-lock configuration.
func (r *Registry) PutObjectLockConfig(ctx context.Context, name string, cfg *store.ObjectLockConfig) error {
	b, err := r.store.GetBucket(ctx, name)
	if err != nil {
		return err
	}
	b.ObjectLock = cfg
	return r.store.UpdateBucket(ctx, b)
}

// GetObjectLockConfig returns the bucket's default object-lock configuration, failing
// ObjectLockConfigurationNotFoundError when never set.
func (r *Registry) GetObjectLockConfig(ctx context.Context, name string) (*store.ObjectLockConfig, error) {
	b, err := r.store.GetBucket(ctx, name)
	if err != nil {
		return nil, err
	}
	if b.ObjectLock == nil {
		return nil, ErrObjectLockConfigurationNotFound
	}
	return b.ObjectLock, nil
}

// GetConfig returns an opaque bucket sub-configuration blob (policy, tagging, lifecycle, CORS,
// …). The registry never interprets these bytes.
func (r *Registry) GetConfig(ctx context.Context, name string, kind store.BucketConfigKind) ([]byte, error) {
	if _, err := r.store.GetBucket(ctx, name); err != nil {
		return nil, err
	}
	blob, found, err := r.store.GetBucketConfig(ctx, name, kind)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("no such bucket configuration: " + string(kind))
	}
	return blob, nil
}

// PutConfig stores an opaque bucket sub-configuration blob.
func (r *Registry) PutConfig(ctx context.Context, name string, kind store.BucketConfigKind, blob []byte) error {
	if _, err := r.store.GetBucket(ctx, name); err != nil {
		return err
	}
	return r.store.PutBucketConfig(ctx, name, kind, blob)
}

// DeleteConfig removes an opaque bucket sub-configuration blob.
func (r *Registry) DeleteConfig(ctx context.Context, name string, kind store.BucketConfigKind) error {
	return r.store.DeleteBucketConfig(ctx, name, kind)
}

// ListBuckets returns every bucket in the store, lexicographically ordered by name.
func (r *Registry) ListBuckets(ctx context.Context) ([]*store.Bucket, error) {
	return r.store.ListBuckets(ctx)
}
