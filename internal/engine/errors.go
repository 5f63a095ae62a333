package engine

import (
	"errors"

	"github.com/objectfs/objectfs/internal/bucket"
	"github.com/objectfs/objectfs/internal/lock"
	"github.com/objectfs/objectfs/internal/store"
	"github.com/objectfs/objectfs/internal/surface"
)

// toEngineError maps every sentinel error the engine's collaborators can return into the stable
// surface.EngineError encoding (spec.md §7). Errors already in that shape (conditional evaluation
// failures, built by conditional.go) pass through unchanged.
func toEngineError(err error) error {
	if err == nil {
		return nil
	}
	var ee *surface.EngineError
	if errors.As(err, &ee) {
		return ee
	}

	switch {
	case errors.Is(err, store.ErrBucketNotFound):
		return surface.NewEngineError(surface.CodeNoSuchBucket, err)
	case errors.Is(err, store.ErrBucketAlreadyExists):
		return surface.NewEngineError(surface.CodeBucketAlreadyExists, err)
	case errors.Is(err, bucket.ErrBucketNotEmpty):
		return surface.NewEngineError(surface.CodeBucketNotEmpty, err)
	case errors.Is(err, bucket.ErrInvalidBucketName):
		return surface.NewEngineError(surface.CodeInvalidArgument, err)
	case errors.Is(err, bucket.ErrAccessDenied):
		return surface.NewEngineError(surface.CodeAccessDenied, err)
	case errors.Is(err, bucket.ErrObjectLockConfigurationNotFound):
		return surface.NewEngineError(surface.CodeObjectLockConfigurationNotFoundError, err)
	case errors.Is(err, store.ErrObjectNotFound):
		return surface.NewEngineError(surface.CodeNoSuchKey, err)
	case errors.Is(err, store.ErrVersionNotFound):
		return surface.NewEngineError(surface.CodeNoSuchVersion, err)
	case errors.Is(err, store.ErrUploadNotFound):
		return surface.NewEngineError(surface.CodeNoSuchUpload, err)
	case errors.Is(err, store.ErrPartNotFound):
		return surface.NewEngineError(surface.CodeInvalidPart, err)
	case errors.Is(err, lock.ErrObjectUnderLegalHold),
		errors.Is(err, lock.ErrNoRetentionConfiguration),
		errors.Is(err, lock.ErrCannotShortenCompliance),
		errors.Is(err, lock.ErrCannotShortenGovernance),
		errors.Is(err, lock.ErrInsufficientPermissions):
		return surface.NewEngineError(surface.CodeAccessDenied, err)
	default:
		var re *lock.RetentionError
		if errors.As(err, &re) {
			return surface.NewEngineError(surface.CodeAccessDenied, err)
		}
		return surface.NewEngineError(surface.CodeInternalError, err)
	}
}
