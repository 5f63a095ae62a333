// Package store provides the KV substrate contract the object engine is built on:
// point get, atomic multi-key write batches, and prefix-bounded range scans.
package store

import (
	"context"
	"errors"
	"time"
)

// Common substrate errors.
var (
	ErrBucketNotFound      = errors.New("bucket not found")
	ErrBucketAlreadyExists = errors.New("bucket already exists")
	ErrObjectNotFound      = errors.New("object not found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrUploadNotFound      = errors.New("multipart upload not found")
	ErrPartNotFound        = errors.New("part not found")
)

// VersioningStatus is the bucket-level versioning mode.
type VersioningStatus string

const (
	VersioningUnconfigured VersioningStatus = ""
	VersioningEnabled      VersioningStatus = "Enabled"
	VersioningSuspended    VersioningStatus = "Suspended"
)

// RetentionMode is the object-lock retention mode for a version.
type RetentionMode string

const (
	RetentionGovernance RetentionMode = "GOVERNANCE"
	RetentionCompliance RetentionMode = "COMPLIANCE"
)

// LegalHoldStatus is the orthogonal per-version legal-hold flag.
type LegalHoldStatus string

const (
	LegalHoldOn  LegalHoldStatus = "ON"
	LegalHoldOff LegalHoldStatus = "OFF"
)

// Retention is a per-version immutability window.
type Retention struct {
	Mode            RetentionMode
	RetainUntilDate time.Time
}

// BucketConfigKind names an opaque bucket sub-configuration record. The engine never interprets
// the bytes behind these kinds; it only stores and returns them.
type BucketConfigKind string

const (
	ConfigPolicy            BucketConfigKind = "policy"
	ConfigTagging           BucketConfigKind = "tagging"
	ConfigEncryption        BucketConfigKind = "encryption"
	ConfigLifecycle         BucketConfigKind = "lifecycle"
	ConfigCORS              BucketConfigKind = "cors"
	ConfigWebsite           BucketConfigKind = "website"
	ConfigLogging           BucketConfigKind = "logging"
	ConfigNotification      BucketConfigKind = "notification"
	ConfigPublicAccessBlock BucketConfigKind = "public-access-block"
)

// ObjectLockConfig is the bucket-level default-retention rule.
type ObjectLockConfig struct {
	Enabled bool
	Mode    RetentionMode
	Days    *int
	Years   *int
}

// Bucket is the `bucket::{name}` record.
type Bucket struct {
	Name          string
	CreatedAt     time.Time
	Versioning    VersioningStatus
	MFADelete     bool
	ObjectLock    *ObjectLockConfig
	ExpectedOwner string
}

// ObjectRecord represents either the CurrentObject head (stored under `object::{bucket}::{key}`)
// or an archived VersionRecord (stored under `version::{bucket}::{key}::{version-id}`). Same
// shape, two key prefixes — deliberately, mirroring the substrate's typed-document model.
type ObjectRecord struct {
	Bucket         string
	Key            string
	VersionID      string // literal "null" or an IdGen-minted id
	IsLatest       bool
	IsDeleteMarker bool
	ETag           string
	Size           int64
	ContentType    string
	UserMetadata   map[string]string
	LastModified   time.Time
	Retention      *Retention
	LegalHold      LegalHoldStatus
	Tags           map[string]string
	ContentRef     string // opaque reference into the content blob store
}

// Clone returns a deep-enough copy safe to mutate independently of the original.
func (o *ObjectRecord) Clone() *ObjectRecord {
	if o == nil {
		return nil
	}
	c := *o
	if o.UserMetadata != nil {
		c.UserMetadata = make(map[string]string, len(o.UserMetadata))
		for k, v := range o.UserMetadata {
			c.UserMetadata[k] = v
		}
	}
	if o.Tags != nil {
		c.Tags = make(map[string]string, len(o.Tags))
		for k, v := range o.Tags {
			c.Tags[k] = v
		}
	}
	if o.Retention != nil {
		r := *o.Retention
		c.Retention = &r
	}
	return &c
}

// Upload is the `upload::{upload-id}` in-progress multipart upload record.
type Upload struct {
	UploadID     string
	Bucket       string
	Key          string
	ContentType  string
	UserMetadata map[string]string
	Initiated    time.Time
}

// Part is the `part::{upload-id}::{partNum}` multipart part record (partNum zero-padded to five
// digits).
type Part struct {
	UploadID   string
	Bucket     string
	Key        string
	PartNumber int
	ETag       string
	Size       int64
	ContentRef string
	Uploaded   time.Time
}

// Store is the KV/SQL substrate contract: typed document access, atomic write batches, and
// prefix-bounded range scans. Implementations: Pebble (primary) and Badger (alternate), proving
// the engine is substrate-agnostic per spec's framing of persistence as an external collaborator.
type Store interface {
	// Bucket operations.
	CreateBucket(ctx context.Context, b *Bucket) error
	GetBucket(ctx context.Context, name string) (*Bucket, error)
	UpdateBucket(ctx context.Context, b *Bucket) error
	DeleteBucket(ctx context.Context, name string) error
	ListBuckets(ctx context.Context) ([]*Bucket, error)

	// Opaque bucket sub-configuration blobs.
	GetBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind) ([]byte, bool, error)
	PutBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind, blob []byte) error
	DeleteBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind) error

	// Current-object head operations.
	GetObject(ctx context.Context, bucket, key string) (*ObjectRecord, error)
	DeleteObjectKey(ctx context.Context, bucket, key string) error

	// PutHeadAndArchive atomically writes the new head and, if archive is non-nil, an archived
	// VersionRecord for the prior head, in one write batch.
	PutHeadAndArchive(ctx context.Context, head *ObjectRecord, archive *ObjectRecord) error

	// GetVersion resolves an explicit version-id, whether it currently lives as the head or as an
	// archived VersionRecord.
	GetVersion(ctx context.Context, bucket, key, versionID string) (*ObjectRecord, error)

	// UpdateRecord applies mutate to the record at (bucket,key,versionID), wherever it currently
	// lives (head or archive), and writes it back under the same key.
	UpdateRecord(ctx context.Context, bucket, key, versionID string, mutate func(*ObjectRecord)) error

	// ListVersions returns every VersionRecord for (bucket,key), newest first by version-id
	// (descending byte order).
	// The current head is NOT included; callers merge it in themselves.
	ListVersions(ctx context.Context, bucket, key string) ([]*ObjectRecord, error)

	// DeleteVersionRecord removes one archived VersionRecord (never the head).
	DeleteVersionRecord(ctx context.Context, bucket, key, versionID string) error

	// UpdateVersionRecord overwrites the archived VersionRecord at rec's (bucket,key,version-id)
	// with rec in full.
	UpdateVersionRecord(ctx context.Context, rec *ObjectRecord) error

	// ScanObjects iterates current-object heads in a bucket under prefix, in key order, starting
	// strictly after startAfter (empty = from the beginning). fn returning false stops iteration.
	ScanObjects(ctx context.Context, bucket, prefix, startAfter string, fn func(*ObjectRecord) bool) error

	// ScanAllVersions iterates every ObjectRecord (head + archived versions) in a bucket under
	// prefix, in key-then-version order. fn returning false stops iteration.
	ScanAllVersions(ctx context.Context, bucket, prefix string, fn func(*ObjectRecord) bool) error

	// Multipart uploads.
	CreateUpload(ctx context.Context, u *Upload) error
	GetUpload(ctx context.Context, uploadID string) (*Upload, error)
	DeleteUpload(ctx context.Context, uploadID string) error
	ListUploads(ctx context.Context, bucket, prefix string, maxUploads int) ([]*Upload, error)
	PutPart(ctx context.Context, p *Part) error
	GetPart(ctx context.Context, uploadID string, partNumber int) (*Part, error)
	ListParts(ctx context.Context, uploadID string) ([]*Part, error)
	DeleteParts(ctx context.Context, uploadID string) error

	// Raw KV access, for components (KeyLocker excluded — that's in-process) that need it
	// directly rather than through the typed helpers above.
	RawBatch(ctx context.Context, sets map[string][]byte, deletes []string) error
	RawScan(ctx context.Context, prefix, startKey string, fn func(key string, val []byte) bool) error

	Close() error
	IsReady() bool
}
