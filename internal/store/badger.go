package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	DataDir string
	Logger  *logrus.Logger
}

// badgerLogger adapts logrus to badger's logging interface.
type badgerLogger struct {
	logger *logrus.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// BadgerStore is the alternate Store implementation, backed by dgraph-io/badger/v4. It exists to
// demonstrate that the object engine is agnostic to the choice of embedded KV substrate, as spec'd
// ("the core requires only durable key->value records, atomic multi-record write batches, and
// basic indexed range scans") — it implements exactly the same rawKV contract as PebbleStore and
// inherits all typed document logic from typedStore.
type BadgerStore struct {
	*typedStore
	db    *badger.DB
	ready atomic.Bool

	createMu sync.Mutex
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens (creating if absent) a Badger database at opts.DataDir.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	badgerOpts := badger.DefaultOptions(opts.DataDir).WithLogger(&badgerLogger{logger: logger})
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %s: %w", opts.DataDir, err)
	}

	s := &BadgerStore{db: db}
	s.typedStore = &typedStore{kv: s}
	s.ready.Store(true)
	return s, nil
}

func (s *BadgerStore) IsReady() bool { return s.ready.Load() }

func (s *BadgerStore) Close() error {
	s.ready.Store(false)
	return s.db.Close()
}

func (s *BadgerStore) rawGet(key string) ([]byte, bool, error) {
	var out []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

func (s *BadgerStore) RawBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for k, v := range sets {
			if err := txn.Set([]byte(k), v); err != nil {
				return fmt.Errorf("batch set %s: %w", k, err)
			}
		}
		for _, k := range deletes {
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("batch delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) RawScan(ctx context.Context, prefix, startKey string, fn func(key string, val []byte) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(prefix)
		if startKey != "" && startKey > prefix {
			seek = []byte(startKey)
		}

		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			k := string(item.KeyCopy(nil))
			if startKey != "" && bytes.Compare([]byte(k), []byte(startKey)) < 0 {
				continue
			}
			var v []byte
			if err := item.Value(func(val []byte) error {
				v = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			if !fn(k, v) {
				return nil
			}
		}
		return nil
	})
}

// CreateBucket serializes bucket creation's existence-check-then-write, same rationale as
// PebbleStore.CreateBucket.
func (s *BadgerStore) CreateBucket(ctx context.Context, b *Bucket) error {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	return s.typedStore.CreateBucket(ctx, b)
}
