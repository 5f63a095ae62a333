package surface

import (
	"io"
	"time"

	"github.com/objectfs/objectfs/internal/store"
)

// Operation tags which request/response shape a typed surface call carries. Modeled as tagged
// variants instead of a broad inheritance hierarchy, per SPEC_FULL §9's redesign-flag guidance.
type Operation int

const (
	OpPut Operation = iota
	OpGet
	OpHead
	OpDelete
	OpCopy
	OpListObjects
	OpListObjectVersions
	OpBatchDelete
)

// RequestMeta is embedded in every per-operation request struct.
type RequestMeta struct {
	Bucket        string
	Key           string
	VersionID     string // explicit version-id, empty = resolve current head
	ExpectedOwner string
}

// Preconditions carries the four conditional-request kinds evaluated per spec.md §4.4.5.
type Preconditions struct {
	IfMatch           []string // etags
	IfNoneMatch       []string // etags, or exactly ["*"] meaning "no object exists"
	IfModifiedSince   *time.Time
	IfUnmodifiedSince *time.Time
}

// MetadataDirective controls how Copy derives destination metadata.
type MetadataDirective int

const (
	DirectiveCopy MetadataDirective = iota
	DirectiveReplace
)

// PutRequest is the input to ObjectEngine.Put.
type PutRequest struct {
	RequestMeta
	Body          io.Reader
	ContentType   string
	UserMetadata  map[string]string
	Tags          map[string]string
	Preconditions Preconditions

	// ETagOverride, when non-empty, skips content hashing and records this value as the new
	// version's ETag instead. Used by the multipart coordinator, whose completed-upload ETag is
	// the distinguished hex(sha256(concat(part digests)))-{count} form, not a hash of the
	// assembled bytes.
	ETagOverride string
}

// PutResult is the output of ObjectEngine.Put.
type PutResult struct {
	VersionID    string
	ETag         string
	Size         int64
	LastModified time.Time
}

// GetRequest is the input to ObjectEngine.Get/Head.
type GetRequest struct {
	RequestMeta
	Preconditions Preconditions
}

// GetResult is the output of ObjectEngine.Get/Head.
type GetResult struct {
	VersionID      string
	ETag           string
	Size           int64
	ContentType    string
	UserMetadata   map[string]string
	LastModified   time.Time
	IsDeleteMarker bool
	Retention      *store.Retention
	LegalHold      store.LegalHoldStatus
	Tags           map[string]string
	Body           io.ReadCloser // nil for Head
	NotModified    bool
}

// DeleteRequest is the input to ObjectEngine.Delete.
type DeleteRequest struct {
	RequestMeta
	BypassGovernanceRetention bool
	Preconditions             Preconditions
}

// DeleteResult is the output of ObjectEngine.Delete.
type DeleteResult struct {
	DeleteMarker   bool
	VersionID      string // the marker's version-id, if one was created
	DeletedVersion string // the explicit version-id targeted (echoed even if it did not exist), or the removed head's id on an unversioned bucket
}

// CopyRequest is the input to ObjectEngine.Copy.
type CopyRequest struct {
	SourceBucket    string
	SourceKey       string
	SourceVersionID string
	DestBucket      string
	DestKey         string
	Directive       MetadataDirective
	ContentType     string
	UserMetadata    map[string]string
	ExpectedOwner   string
	SourcePreconditions Preconditions
}

// CopyResult is the output of ObjectEngine.Copy.
type CopyResult struct {
	ETag         string
	VersionID    string
	LastModified time.Time
}

// BucketReader is a narrow read capability over bucket records. No component in this module
// consumes it: Lister takes a *bucket.Registry and BatchDeleter an *engine.Engine.
type BucketReader interface {
	GetBucket(bucket string) (*store.Bucket, error)
}

// ObjectReader is a narrow read capability over current-object heads. No component in this
// module consumes it; Lister and BatchDeleter depend on Store and ObjectEngine directly.
type ObjectReader interface {
	GetCurrentObject(bucket, key string) (*store.ObjectRecord, error)
}
