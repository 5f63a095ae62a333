package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble/v2"
	"github.com/sirupsen/logrus"
)

// PebbleOptions configures a PebbleStore.
type PebbleOptions struct {
	DataDir string
	Logger  *logrus.Logger
}

// pebbleLogger adapts logrus to pebble's logging interface, mirroring the teacher's
// metadata.pebbleLogger adapter in pebble_store.go.
type pebbleLogger struct {
	logger *logrus.Logger
}

func (l *pebbleLogger) Infof(format string, args ...interface{})  { l.logger.Debugf(format, args...) }
func (l *pebbleLogger) Errorf(format string, args ...interface{}) { l.logger.Errorf(format, args...) }
func (l *pebbleLogger) Fatalf(format string, args ...interface{}) { l.logger.Fatalf(format, args...) }

// PebbleStore is the primary Store implementation, backed by cockroachdb/pebble/v2. Its typed
// document operations are inherited from typedStore; PebbleStore supplies only the raw KV layer
// and lifecycle management.
type PebbleStore struct {
	*typedStore
	db     *pebble.DB
	logger *logrus.Logger
	ready  atomic.Bool

	createMu sync.Mutex // serializes bucket creation's existence check + write
}

var _ Store = (*PebbleStore)(nil)

// NewPebbleStore opens (creating if absent) a Pebble database at opts.DataDir.
func NewPebbleStore(opts PebbleOptions) (*PebbleStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	db, err := pebble.Open(opts.DataDir, &pebble.Options{
		Logger: &pebbleLogger{logger: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("opening pebble store at %s: %w", opts.DataDir, err)
	}

	s := &PebbleStore{db: db, logger: logger}
	s.typedStore = &typedStore{kv: s}
	s.ready.Store(true)
	return s, nil
}

func (s *PebbleStore) IsReady() bool { return s.ready.Load() }

func (s *PebbleStore) Close() error {
	s.ready.Store(false)
	return s.db.Close()
}

func (s *PebbleStore) rawGet(key string) ([]byte, bool, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, false, cerr
	}
	return out, true, nil
}

func (s *PebbleStore) RawBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	for k, v := range sets {
		if err := batch.Set([]byte(k), v, nil); err != nil {
			return fmt.Errorf("batch set %s: %w", k, err)
		}
	}
	for _, k := range deletes {
		if err := batch.Delete([]byte(k), nil); err != nil {
			return fmt.Errorf("batch delete %s: %w", k, err)
		}
	}
	return batch.Commit(pebble.NoSync)
}

func (s *PebbleStore) RawScan(ctx context.Context, prefix, startKey string, fn func(key string, val []byte) bool) error {
	lower := []byte(prefix)
	if startKey != "" && startKey > prefix {
		lower = []byte(startKey)
	}
	upper := prefixUpperBound([]byte(prefix))

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		k := string(iter.Key())
		v := make([]byte, len(iter.Value()))
		copy(v, iter.Value())
		if !fn(k, v) {
			break
		}
	}
	return iter.Error()
}

// Compact runs Pebble's garbage collection and compaction.
func (s *PebbleStore) Compact(ctx context.Context) error {
	return s.db.Compact(nil, []byte{0xFF}, true)
}

// CreateBucket serializes bucket creation's existence-check-then-write under createMu, since
// Pebble's batch commit alone does not provide compare-and-swap semantics across the read and the
// write. Mirrors the teacher's bucketCreateMu in metadata.pebble_store.go.
func (s *PebbleStore) CreateBucket(ctx context.Context, b *Bucket) error {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	return s.typedStore.CreateBucket(ctx, b)
}
