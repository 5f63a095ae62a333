package engine

import (
	"context"

	"github.com/objectfs/objectfs/internal/store"
	"github.com/objectfs/objectfs/internal/surface"
)

// Delete removes an object or a specific version, or — on a versioned bucket with no explicit
// version-id — inserts a delete marker (spec.md §4.4.3). Deleting the current head of a
// versioned key promotes the next-newest remaining version to head; this promotion algorithm has
// no teacher analogue (its DeleteObjectVersion was a stub).
func (e *Engine) Delete(ctx context.Context, req *surface.DeleteRequest) (*surface.DeleteResult, error) {
	b, err := e.requireBucket(ctx, req.Bucket, req.ExpectedOwner)
	if err != nil {
		return nil, toEngineError(err)
	}

	var result *surface.DeleteResult
	lockErr := e.locks.WithKeyLock(ctx, req.Bucket, req.Key, func(ctx context.Context) error {
		if req.VersionID == "" {
			r, err := e.deleteNoVersion(ctx, b, req)
			result = r
			return err
		}
		r, err := e.deleteExplicitVersion(ctx, req)
		result = r
		return err
	})
	if lockErr != nil {
		return nil, toEngineError(lockErr)
	}
	e.metrics.deletes.Inc()
	return result, nil
}

// deleteNoVersion implements the unversioned and versioned DELETE-without-version-id paths.
func (e *Engine) deleteNoVersion(ctx context.Context, b *store.Bucket, req *surface.DeleteRequest) (*surface.DeleteResult, error) {
	current, headErr := e.store.GetObject(ctx, req.Bucket, req.Key)

	if b.Versioning == store.VersioningUnconfigured {
		if headErr == store.ErrObjectNotFound {
			return &surface.DeleteResult{}, nil
		}
		if headErr != nil {
			return nil, headErr
		}
		if cerr := evaluateWrite(req.Preconditions, true, current.ETag); cerr != nil {
			return nil, cerr
		}
		if err := e.lockEnf.EnforceDestroy(current, req.BypassGovernanceRetention); err != nil {
			return nil, err
		}
		if current.ContentRef != "" {
			if err := e.content.Delete(ctx, current.ContentRef); err != nil {
				return nil, err
			}
		}
		if err := e.store.DeleteObjectKey(ctx, req.Bucket, req.Key); err != nil {
			return nil, err
		}
		return &surface.DeleteResult{DeletedVersion: current.VersionID}, nil
	}

	// Enabled or Suspended: DELETE without a version-id always inserts a new delete marker as the
	// head, archiving whatever was there before under the same rule a Put would use. Marker
	// insertion never touches content bytes and is never blocked by retention/legal-hold — those
	// only gate destruction of real content. Preconditions are still evaluated inside the key lock,
	// same as a write (spec.md §4.4.5).
	exists, etag, _, serr := headState(current, headErr)
	if serr != nil {
		return nil, serr
	}
	if cerr := evaluateWrite(req.Preconditions, exists, etag); cerr != nil {
		return nil, cerr
	}

	var archive *store.ObjectRecord
	if headErr == nil {
		archive = archiveOnWrite(b.Versioning, current)
	} else if headErr != store.ErrObjectNotFound {
		return nil, headErr
	}

	versionID := nextVersionID(b.Versioning, e.ids)
	marker := &store.ObjectRecord{
		Bucket:         req.Bucket,
		Key:            req.Key,
		VersionID:      versionID,
		IsLatest:       true,
		IsDeleteMarker: true,
		LastModified:   e.clock(),
	}
	if err := e.store.PutHeadAndArchive(ctx, marker, archive); err != nil {
		return nil, err
	}
	return &surface.DeleteResult{DeleteMarker: true, VersionID: versionID}, nil
}

// deleteExplicitVersion permanently removes one named version, head or archived, regardless of
// bucket versioning status, promoting the next-newest remaining version to head when the removed
// version was the head.
func (e *Engine) deleteExplicitVersion(ctx context.Context, req *surface.DeleteRequest) (*surface.DeleteResult, error) {
	rec, err := e.store.GetVersion(ctx, req.Bucket, req.Key, req.VersionID)
	if err != nil {
		// Deleting an already-absent version is idempotent, per spec.md §4.4.7's failure-semantics
		// table: no error, nothing removed.
		if err == store.ErrObjectNotFound || err == store.ErrVersionNotFound {
			return &surface.DeleteResult{DeletedVersion: req.VersionID}, nil
		}
		return nil, err
	}

	if !rec.IsDeleteMarker {
		if err := e.lockEnf.EnforceDestroy(rec, req.BypassGovernanceRetention); err != nil {
			return nil, err
		}
	}

	head, headErr := e.store.GetObject(ctx, req.Bucket, req.Key)
	isHead := headErr == nil && head.VersionID == req.VersionID

	if isHead {
		if err := e.promoteNextVersion(ctx, req.Bucket, req.Key); err != nil {
			return nil, err
		}
	} else {
		if err := e.store.DeleteVersionRecord(ctx, req.Bucket, req.Key, req.VersionID); err != nil {
			return nil, err
		}
	}

	if !rec.IsDeleteMarker && rec.ContentRef != "" {
		if err := e.content.Delete(ctx, rec.ContentRef); err != nil {
			return nil, err
		}
	}

	deletedMarker := rec.IsDeleteMarker
	return &surface.DeleteResult{DeletedVersion: req.VersionID, DeleteMarker: deletedMarker}, nil
}

// promoteNextVersion removes the current head record and, if an archived version remains, makes
// the newest of them the new head; otherwise the key has no remaining record at all.
func (e *Engine) promoteNextVersion(ctx context.Context, bucket, key string) error {
	versions, err := e.store.ListVersions(ctx, bucket, key)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return e.store.DeleteObjectKey(ctx, bucket, key)
	}

	next := versions[0] // ListVersions returns newest-first.
	next.IsLatest = true
	if err := e.store.DeleteVersionRecord(ctx, bucket, key, next.VersionID); err != nil {
		return err
	}
	return e.store.PutHeadAndArchive(ctx, next, nil)
}
