// Package batchdelete implements BatchDeleter: concurrent per-entry deletes over a bounded worker
// pool (spec.md §4.6), grounded on the teacher's pkg/s3compat/batch.go DeleteObjects handler
// (semaphore := make(chan struct{}, 50)), relocated here since BatchDeleter is an ObjectEngine
// collaborator, not an HTTP-layer concern.
package batchdelete

import (
	"context"
	"sync"

	"github.com/objectfs/objectfs/internal/engine"
	"github.com/objectfs/objectfs/internal/surface"
)

// maxConcurrentDeletes matches the teacher's worker-pool width.
const maxConcurrentDeletes = 50

// maxBatchSize matches the teacher's per-request cap (and S3's).
const maxBatchSize = 1000

// Entry names one object (and, for versioned deletes, a specific version) to remove.
type Entry struct {
	Key       string
	VersionID string
}

// Outcome reports what happened to one Entry.
type Outcome struct {
	Entry
	DeleteMarker        bool
	DeleteMarkerVersion string
	DeletedVersion      string
	Err                 error
}

// Deleter is the BatchDeleter component (SPEC_FULL §4.6).
type Deleter struct {
	engine *engine.Engine
}

// New returns a Deleter that issues deletes through engine.
func New(e *engine.Engine) *Deleter {
	return &Deleter{engine: e}
}

// ErrTooManyEntries is returned when a batch exceeds maxBatchSize entries.
type ErrTooManyEntries struct{ Count int }

func (e *ErrTooManyEntries) Error() string {
	return "batch delete request exceeds the maximum of 1000 objects"
}

// Delete removes every entry concurrently, bounded to maxConcurrentDeletes in flight at once.
// When quiet is true, every successful entry is omitted from the returned slice — including
// delete-marker creations, which are still a Deleted outcome, not an error — leaving only
// failures, matching the S3 Quiet semantics the teacher's DeleteObjectsRequest.Quiet field
// encodes.
func (d *Deleter) Delete(ctx context.Context, bucketName string, entries []Entry, bypassGovernanceRetention, quiet bool) ([]Outcome, error) {
	if len(entries) > maxBatchSize {
		return nil, &ErrTooManyEntries{Count: len(entries)}
	}

	outcomes := make([]Outcome, len(entries))
	sem := make(chan struct{}, maxConcurrentDeletes)
	var wg sync.WaitGroup

	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := d.engine.Delete(ctx, &surface.DeleteRequest{
				RequestMeta: surface.RequestMeta{
					Bucket:    bucketName,
					Key:       entry.Key,
					VersionID: entry.VersionID,
				},
				BypassGovernanceRetention: bypassGovernanceRetention,
			})

			o := Outcome{Entry: entry, Err: err}
			if err == nil {
				o.DeleteMarker = res.DeleteMarker
				if res.DeleteMarker {
					o.DeleteMarkerVersion = res.VersionID
				}
				o.DeletedVersion = res.DeletedVersion
			}
			outcomes[i] = o
		}(i, entry)
	}
	wg.Wait()

	if !quiet {
		return outcomes, nil
	}

	var reported []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			reported = append(reported, o)
		}
	}
	return reported, nil
}
