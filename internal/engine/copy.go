package engine

import (
	"context"

	"github.com/objectfs/objectfs/internal/store"
	"github.com/objectfs/objectfs/internal/surface"
)

// Copy duplicates one version's content and metadata to a (possibly different) destination key,
// honoring the metadata directive and source-side preconditions (spec.md §4.4.4). Neither
// directive handling nor source-version-id addressing exists in the teacher's CopyObject, which
// only ever copied the current head with always-replaced metadata.
func (e *Engine) Copy(ctx context.Context, req *surface.CopyRequest) (*surface.CopyResult, error) {
	if _, err := e.requireBucket(ctx, req.SourceBucket, req.ExpectedOwner); err != nil {
		return nil, toEngineError(err)
	}
	destBucket, err := e.requireBucket(ctx, req.DestBucket, req.ExpectedOwner)
	if err != nil {
		return nil, toEngineError(err)
	}

	src, err := e.resolve(ctx, req.SourceBucket, req.SourceKey, req.SourceVersionID)
	if err != nil {
		return nil, toEngineError(err)
	}
	if src.IsDeleteMarker {
		return nil, toEngineError(surface.NewEngineError(surface.CodeNoSuchKey, nil))
	}
	if cerr := evaluateRead(req.SourcePreconditions, src.ETag, src.LastModified); cerr != nil {
		return nil, cerr
	}

	contentType := src.ContentType
	userMetadata := src.UserMetadata
	if req.Directive == surface.DirectiveReplace {
		contentType = req.ContentType
		userMetadata = req.UserMetadata
	}

	var result *surface.CopyResult
	lockErr := e.locks.WithKeyLock(ctx, req.DestBucket, req.DestKey, func(ctx context.Context) error {
		current, headErr := e.store.GetObject(ctx, req.DestBucket, req.DestKey)
		if headErr != nil && headErr != store.ErrObjectNotFound {
			return headErr
		}

		versionID := nextVersionID(destBucket.Versioning, e.ids)
		ref := contentRef(req.DestBucket, req.DestKey, versionID)

		srcBody, err := e.content.Get(ctx, src.ContentRef)
		if err != nil {
			return err
		}
		defer srcBody.Close()

		size, err := e.content.Put(ctx, ref, srcBody)
		if err != nil {
			return err
		}

		now := e.clock()
		head := &store.ObjectRecord{
			Bucket:       req.DestBucket,
			Key:          req.DestKey,
			VersionID:    versionID,
			IsLatest:     true,
			ETag:         src.ETag, // Copy preserves the source ETag, per spec.md §4.4.4.
			Size:         size,
			ContentType:  contentType,
			UserMetadata: userMetadata,
			LastModified: now,
			Tags:         src.Tags,
			ContentRef:   ref,
		}

		var archive *store.ObjectRecord
		if headErr == nil {
			archive = archiveOnWrite(destBucket.Versioning, current)
		}

		if err := e.store.PutHeadAndArchive(ctx, head, archive); err != nil {
			return err
		}

		result = &surface.CopyResult{ETag: head.ETag, VersionID: versionID, LastModified: now}
		e.metrics.copies.Inc()
		return nil
	})
	if lockErr != nil {
		return nil, toEngineError(lockErr)
	}
	return result, nil
}
