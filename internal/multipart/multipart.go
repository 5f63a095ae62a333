// Package multipart implements MultipartCoordinator: initiate/upload-part/complete/abort/list
// over Store's upload and part records, handing the assembled object off to ObjectEngine.Put for
// the actual versioned write (spec.md §4.8). Grounded on the teacher's
// internal/object/manager.go (UploadPart, CompleteMultipartUpload, AbortMultipartUpload) and
// internal/metadata/pebble_multipart.go for the upload/part record shape.
package multipart

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/objectfs/objectfs/internal/content"
	"github.com/objectfs/objectfs/internal/engine"
	"github.com/objectfs/objectfs/internal/idgen"
	"github.com/objectfs/objectfs/internal/store"
	"github.com/objectfs/objectfs/internal/surface"
)

// ErrInvalidPartNumber reports a part number outside S3's [1, 10000] range.
var ErrInvalidPartNumber = errors.New("part number must be between 1 and 10000")

// ErrInvalidPart reports that Complete's part list doesn't match what was actually uploaded:
// missing part, ETag mismatch, or non-ascending part numbers.
var ErrInvalidPart = errors.New("one or more specified parts could not be found or do not match")

// PartInput is one entry in a CompleteMultipartUpload request: the part number and the ETag the
// caller observed when it uploaded that part.
type PartInput struct {
	PartNumber int
	ETag       string
}

// Coordinator is the MultipartCoordinator component (SPEC_FULL §4.8).
type Coordinator struct {
	store   store.Store
	content content.Backend
	engine  *engine.Engine
	clock   func() time.Time
}

// New returns a Coordinator backed by the given collaborators. It hands completed uploads to
// engine for the final versioned write, so multipart completion honors the same state-machine and
// locking discipline as a direct Put.
func New(s store.Store, cb content.Backend, e *engine.Engine) *Coordinator {
	return &Coordinator{store: s, content: cb, engine: e, clock: time.Now}
}

func partRef(uploadID string, partNumber int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("upload\x00%s\x00%d", uploadID, partNumber)))
	return hex.EncodeToString(sum[:])
}

// Initiate starts a new multipart upload, minting a fresh opaque upload-id.
func (c *Coordinator) Initiate(ctx context.Context, bucketName, key, contentType string, userMetadata map[string]string) (*store.Upload, error) {
	u := &store.Upload{
		UploadID:     idgen.NewOpaqueID(),
		Bucket:       bucketName,
		Key:          key,
		ContentType:  contentType,
		UserMetadata: userMetadata,
		Initiated:    c.clock(),
	}
	if err := c.store.CreateUpload(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadPart stores one part's bytes, keyed by (uploadID, partNumber). Re-uploading the same part
// number overwrites it, same as S3.
func (c *Coordinator) UploadPart(ctx context.Context, uploadID string, partNumber int, body io.Reader) (*store.Part, error) {
	if partNumber < 1 || partNumber > 10000 {
		return nil, ErrInvalidPartNumber
	}
	u, err := c.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	ref := partRef(uploadID, partNumber)
	hasher := sha256.New()
	size, err := c.content.Put(ctx, ref, io.TeeReader(body, hasher))
	if err != nil {
		return nil, err
	}

	p := &store.Part{
		UploadID:   uploadID,
		Bucket:     u.Bucket,
		Key:        u.Key,
		PartNumber: partNumber,
		ETag:       hex.EncodeToString(hasher.Sum(nil)),
		Size:       size,
		ContentRef: ref,
		Uploaded:   c.clock(),
	}
	if err := c.store.PutPart(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParts returns every uploaded part, ascending by part number.
func (c *Coordinator) ListParts(ctx context.Context, uploadID string) ([]*store.Part, error) {
	return c.store.ListParts(ctx, uploadID)
}

// ListUploads returns in-progress uploads for a bucket under prefix.
func (c *Coordinator) ListUploads(ctx context.Context, bucketName, prefix string, maxUploads int) ([]*store.Upload, error) {
	return c.store.ListUploads(ctx, bucketName, prefix, maxUploads)
}

// Abort discards an in-progress upload and all of its uploaded part bytes.
func (c *Coordinator) Abort(ctx context.Context, uploadID string) error {
	if _, err := c.store.GetUpload(ctx, uploadID); err != nil {
		return err
	}
	parts, err := c.store.ListParts(ctx, uploadID)
	if err != nil {
		return err
	}
	for _, p := range parts {
		_ = c.content.Delete(ctx, p.ContentRef)
	}
	if err := c.store.DeleteParts(ctx, uploadID); err != nil {
		return err
	}
	return c.store.DeleteUpload(ctx, uploadID)
}

// Complete validates the caller's part list against what was actually uploaded — parts must be
// named in strictly ascending order and each ETag must match — assembles the referenced bytes in
// order, and hands the result to ObjectEngine.Put under the distinguished multipart ETag form
// (spec.md §4.8, §9 open questions). On success, every part's storage is released and the upload
// record removed.
func (c *Coordinator) Complete(ctx context.Context, uploadID string, parts []PartInput) (*surface.PutResult, error) {
	u, err := c.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrInvalidPart
	}

	stored, err := c.store.ListParts(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*store.Part, len(stored))
	for _, p := range stored {
		byNumber[p.PartNumber] = p
	}

	readers := make([]io.Reader, 0, len(parts))
	closers := make([]io.Closer, 0, len(parts))
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	etags := make([]string, 0, len(parts))
	lastPartNumber := 0
	for _, in := range parts {
		if in.PartNumber <= lastPartNumber {
			return nil, ErrInvalidPart
		}
		lastPartNumber = in.PartNumber

		stored, ok := byNumber[in.PartNumber]
		if !ok || stored.ETag != in.ETag {
			return nil, ErrInvalidPart
		}

		r, err := c.content.Get(ctx, stored.ContentRef)
		if err != nil {
			return nil, err
		}
		closers = append(closers, r)
		readers = append(readers, r)
		etags = append(etags, stored.ETag)
	}

	assembled := io.MultiReader(readers...)
	finalETag := idgen.MultipartETag(etags)

	result, err := c.engine.Put(ctx, &surface.PutRequest{
		RequestMeta:  surface.RequestMeta{Bucket: u.Bucket, Key: u.Key},
		Body:         assembled,
		ContentType:  u.ContentType,
		UserMetadata: u.UserMetadata,
		ETagOverride: finalETag,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range stored {
		_ = c.content.Delete(ctx, p.ContentRef)
	}
	_ = c.store.DeleteParts(ctx, uploadID)
	_ = c.store.DeleteUpload(ctx, uploadID)

	return result, nil
}
