// Package keylock implements the per-(bucket,key) write-serialization primitive the object engine
// requires to avoid losing concurrent versions of the same key.
package keylock

import (
	"context"
	"sync"
)

// entry is one logical key's mutex plus a waiter refcount, so the map entry can be reclaimed once
// nobody still holds or wants it.
type entry struct {
	mu      sync.Mutex
	waiters int
}

// Locker grants mutually exclusive access to one logical (bucket,key) at a time. Grounded on the
// teacher's bucketMetricsMu sync.Map pattern in metadata/pebble_store.go, generalized from a
// bounded bucket-keyed map to an unbounded key-keyed one with explicit entry cleanup — the
// teacher's map never shrinks, which only works because bucket cardinality stays small.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a ready-to-use Locker.
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

func lockKey(bucket, key string) string {
	return bucket + "\x00" + key
}

func (l *Locker) acquire(name string) *entry {
	l.mu.Lock()
	e, ok := l.entries[name]
	if !ok {
		e = &entry{}
		l.entries[name] = e
	}
	e.waiters++
	l.mu.Unlock()

	e.mu.Lock()
	return e
}

func (l *Locker) release(name string, e *entry) {
	e.mu.Unlock()

	l.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		// No one else is holding or waiting on this entry; safe to drop it so the map doesn't
		// grow without bound across the key space.
		if cur, ok := l.entries[name]; ok && cur == e {
			delete(l.entries, name)
		}
	}
	l.mu.Unlock()
}

// WithKeyLock runs fn with exclusive ownership of (bucket,key), released on every exit path
// (success, panic, or fn returning an error). Required property: N concurrent WithKeyLock calls
// against the same (bucket,key) run fn one at a time, in the order each call acquired the lock.
func (l *Locker) WithKeyLock(ctx context.Context, bucket, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := lockKey(bucket, key)
	e := l.acquire(name)
	defer l.release(name, e)
	return fn(ctx)
}
