package engine

import (
	"time"

	"github.com/objectfs/objectfs/internal/surface"
)

// evaluateRead applies the four conditional-request kinds to a resolved read target, in HTTP RFC
// order (spec.md §4.4.5): If-Match mismatch -> PreconditionFailed; If-None-Match match ->
// NotModified; If-Modified-Since fail -> NotModified; If-Unmodified-Since fail ->
// PreconditionFailed. Returns a non-nil *surface.EngineError to short-circuit the read without
// returning a body.
func evaluateRead(pre surface.Preconditions, etag string, lastModified time.Time) *surface.EngineError {
	if len(pre.IfMatch) > 0 && !etagIn(etag, pre.IfMatch) {
		return surface.NewEngineError(surface.CodePreconditionFailed, nil)
	}
	if len(pre.IfNoneMatch) > 0 {
		if len(pre.IfNoneMatch) == 1 && pre.IfNoneMatch[0] == "*" {
			return surface.NewEngineError(surface.CodeNotModified, nil)
		}
		if etagIn(etag, pre.IfNoneMatch) {
			return surface.NewEngineError(surface.CodeNotModified, nil)
		}
	}
	if pre.IfModifiedSince != nil && !lastModified.After(*pre.IfModifiedSince) {
		return surface.NewEngineError(surface.CodeNotModified, nil)
	}
	if pre.IfUnmodifiedSince != nil && lastModified.After(*pre.IfUnmodifiedSince) {
		return surface.NewEngineError(surface.CodePreconditionFailed, nil)
	}
	return nil
}

// evaluateWrite applies preconditions to a put/delete target, per spec.md §4.4.5's writes rule:
// `If-None-Match: *` with an existing head -> PreconditionFailed; `If-Match` set and the head's
// etag not among it (or head absent) -> PreconditionFailed. Must be called inside the key lock.
func evaluateWrite(pre surface.Preconditions, headExists bool, headETag string) *surface.EngineError {
	if len(pre.IfNoneMatch) == 1 && pre.IfNoneMatch[0] == "*" && headExists {
		return surface.NewEngineError(surface.CodePreconditionFailed, nil)
	}
	if len(pre.IfMatch) > 0 {
		if !headExists || !etagIn(headETag, pre.IfMatch) {
			return surface.NewEngineError(surface.CodePreconditionFailed, nil)
		}
	}
	return nil
}

func etagIn(etag string, set []string) bool {
	for _, e := range set {
		if e == etag {
			return true
		}
	}
	return false
}
