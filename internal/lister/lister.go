// Package lister implements Lister: ListObjects (delimiter/common-prefix grouping, marker and
// continuation-token pagination) and ListObjectVersions (newest-first, IsLatest-flagged) over
// Store's range scans (spec.md §4.5). Grounded on the teacher's internal/object/manager.go
// ListObjects/SearchObjects and internal/metadata/pebble_objects.go ListAllObjectVersions for the
// common-prefix derivation and pagination shape.
package lister

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/objectfs/objectfs/internal/bucket"
	"github.com/objectfs/objectfs/internal/store"
)

const defaultMaxKeys = 1000

// scanCap bounds how many raw records a single listing call examines before grouping and
// truncating, mirroring the teacher's scanLimit = 100000 "scan enough to discover every folder"
// compromise in ListObjects — an embedded single-node store's working set is bounded, but an
// unbounded scan per call still isn't acceptable.
const scanCap = 100000

// ObjectSummary is one entry in a ListObjects result: the current, non-delete-marker head of a
// key.
type ObjectSummary struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
	VersionID    string
}

// ListObjectsResult is the ListObjects/ListObjectsV2 response shape (spec.md §4.5).
type ListObjectsResult struct {
	Objects                []ObjectSummary
	CommonPrefixes         []string
	IsTruncated            bool
	NextMarker             string // V1 marker pagination
	NextContinuationToken  string // V2 continuation-token pagination (same cursor value as NextMarker)
}

// VersionSummary is one entry in a ListObjectVersions result.
type VersionSummary struct {
	Key            string
	VersionID      string
	IsLatest       bool
	IsDeleteMarker bool
	ETag           string
	Size           int64
	LastModified   time.Time
}

// ListVersionsResult is the ListObjectVersions response shape (spec.md §4.5).
type ListVersionsResult struct {
	Versions            []VersionSummary
	CommonPrefixes      []string
	IsTruncated         bool
	NextKeyMarker       string
	NextVersionIDMarker string
}

// Lister is the Lister component (SPEC_FULL §4.5).
type Lister struct {
	store   store.Store
	buckets *bucket.Registry
}

// New returns a Lister backed by the given Store and BucketRegistry.
func New(s store.Store, buckets *bucket.Registry) *Lister {
	return &Lister{store: s, buckets: buckets}
}

// commonPrefixOf returns the grouped common-prefix for key under prefix/delimiter, and whether
// key falls inside one at all (i.e. the delimiter occurs somewhere after the prefix).
func commonPrefixOf(key, prefix, delimiter string) (string, bool) {
	if delimiter == "" || !strings.HasPrefix(key, prefix) {
		return "", false
	}
	remainder := key[len(prefix):]
	idx := strings.Index(remainder, delimiter)
	if idx < 0 {
		return "", false
	}
	return prefix + remainder[:idx+len(delimiter)], true
}

// ListObjects lists current-object heads under prefix, grouping keys that share a delimiter
// segment into CommonPrefixes, starting strictly after marker (either a plain V1 marker or a V2
// continuation-token — both are opaque cursors over the same key space here).
func (l *Lister) ListObjects(ctx context.Context, bucketName, prefix, delimiter, marker string, maxKeys int) (*ListObjectsResult, error) {
	if _, err := l.buckets.Exists(ctx, bucketName); err != nil {
		return nil, err
	}
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}

	var objects []ObjectSummary
	prefixSet := map[string]bool{}
	var prefixOrder []string
	scanned := 0

	err := l.store.ScanObjects(ctx, bucketName, prefix, marker, func(rec *store.ObjectRecord) bool {
		scanned++
		if rec.IsDeleteMarker {
			return scanned < scanCap
		}
		if cp, ok := commonPrefixOf(rec.Key, prefix, delimiter); ok {
			if !prefixSet[cp] {
				prefixSet[cp] = true
				prefixOrder = append(prefixOrder, cp)
			}
			return scanned < scanCap
		}
		objects = append(objects, ObjectSummary{
			Key:          rec.Key,
			ETag:         rec.ETag,
			Size:         rec.Size,
			LastModified: rec.LastModified,
			VersionID:    rec.VersionID,
		})
		return scanned < scanCap
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(prefixOrder)

	result := &ListObjectsResult{}
	total := len(objects) + len(prefixOrder)
	if total <= maxKeys {
		result.Objects = objects
		result.CommonPrefixes = prefixOrder
		return result, nil
	}

	result.IsTruncated = true
	if len(prefixOrder) >= maxKeys {
		result.CommonPrefixes = prefixOrder[:maxKeys]
		result.NextMarker = result.CommonPrefixes[len(result.CommonPrefixes)-1]
	} else {
		result.CommonPrefixes = prefixOrder
		remaining := maxKeys - len(prefixOrder)
		if remaining > len(objects) {
			remaining = len(objects)
		}
		result.Objects = objects[:remaining]
		if remaining > 0 {
			result.NextMarker = result.Objects[remaining-1].Key
		} else if len(prefixOrder) > 0 {
			result.NextMarker = prefixOrder[len(prefixOrder)-1]
		}
	}
	result.NextContinuationToken = result.NextMarker
	return result, nil
}

// ListObjectVersions lists every version (current head and archived) under prefix, newest-first
// per key, with delete markers interleaved and flagged. Store.ScanAllVersions has no
// startAfter parameter (unlike ScanObjects), so keyMarker/versionIDMarker pagination is applied
// in-memory after the full (bounded) scan.
func (l *Lister) ListObjectVersions(ctx context.Context, bucketName, prefix, delimiter, keyMarker, versionIDMarker string, maxKeys int) (*ListVersionsResult, error) {
	if _, err := l.buckets.Exists(ctx, bucketName); err != nil {
		return nil, err
	}
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}

	var all []*store.ObjectRecord
	scanned := 0
	err := l.store.ScanAllVersions(ctx, bucketName, prefix, func(rec *store.ObjectRecord) bool {
		scanned++
		all = append(all, rec)
		return scanned < scanCap
	})
	if err != nil {
		return nil, err
	}

	if keyMarker != "" {
		all = skipPastMarker(all, keyMarker, versionIDMarker)
	}

	var versions []VersionSummary
	prefixSet := map[string]bool{}
	var prefixOrder []string

	for _, rec := range all {
		if cp, ok := commonPrefixOf(rec.Key, prefix, delimiter); ok {
			if !prefixSet[cp] {
				prefixSet[cp] = true
				prefixOrder = append(prefixOrder, cp)
			}
			continue
		}
		versions = append(versions, VersionSummary{
			Key:            rec.Key,
			VersionID:      rec.VersionID,
			IsLatest:       rec.IsLatest,
			IsDeleteMarker: rec.IsDeleteMarker,
			ETag:           rec.ETag,
			Size:           rec.Size,
			LastModified:   rec.LastModified,
		})
	}
	sort.Strings(prefixOrder)

	result := &ListVersionsResult{}
	total := len(versions) + len(prefixOrder)
	if total <= maxKeys {
		result.Versions = versions
		result.CommonPrefixes = prefixOrder
		return result, nil
	}

	result.IsTruncated = true
	if len(prefixOrder) >= maxKeys {
		result.CommonPrefixes = prefixOrder[:maxKeys]
		return result, nil
	}
	result.CommonPrefixes = prefixOrder
	remaining := maxKeys - len(prefixOrder)
	if remaining > len(versions) {
		remaining = len(versions)
	}
	result.Versions = versions[:remaining]
	if remaining > 0 {
		last := result.Versions[remaining-1]
		result.NextKeyMarker = last.Key
		result.NextVersionIDMarker = last.VersionID
	}
	return result, nil
}

// skipPastMarker drops every record at or before (keyMarker,versionIDMarker) in the same
// key-then-newest-first order ScanAllVersions already produced.
func skipPastMarker(recs []*store.ObjectRecord, keyMarker, versionIDMarker string) []*store.ObjectRecord {
	for i, rec := range recs {
		if rec.Key < keyMarker {
			continue
		}
		if rec.Key > keyMarker {
			return recs[i:]
		}
		// Same key: skip entries up to and including versionIDMarker.
		if rec.VersionID == versionIDMarker {
			return recs[i+1:]
		}
	}
	return nil
}
