package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithKeyLockSerializesSameKey(t *testing.T) {
	l := New()
	var order []int
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			err := l.WithKeyLock(context.Background(), "b", "k", func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				order = append(order, i)
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()
	require.Len(t, order, n)
	require.Equal(t, 1, maxActive, "at most one fn may run at a time for the same key")
}

func TestWithKeyLockDoesNotSerializeDifferentKeys(t *testing.T) {
	l := New()
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	results := make(chan time.Duration, 2)
	for _, k := range []string{"k1", "k2"} {
		go func(key string) {
			defer wg.Done()
			<-start
			begin := time.Now()
			_ = l.WithKeyLock(context.Background(), "b", key, func(ctx context.Context) error {
				time.Sleep(50 * time.Millisecond)
				return nil
			})
			results <- time.Since(begin)
		}(k)
	}
	close(start)
	wg.Wait()
	close(results)

	for d := range results {
		require.Less(t, d, 90*time.Millisecond, "distinct keys should not serialize")
	}
}

func TestWithKeyLockReleasesOnError(t *testing.T) {
	l := New()
	err := l.WithKeyLock(context.Background(), "b", "k", func(ctx context.Context) error {
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	// A subsequent lock on the same key must still be acquirable.
	acquired := false
	err = l.WithKeyLock(context.Background(), "b", "k", func(ctx context.Context) error {
		acquired = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestWithKeyLockEntryReclaimed(t *testing.T) {
	l := New()
	require.NoError(t, l.WithKeyLock(context.Background(), "b", "k", func(ctx context.Context) error { return nil }))
	l.mu.Lock()
	_, exists := l.entries[lockKey("b", "k")]
	l.mu.Unlock()
	require.False(t, exists, "entry should be reclaimed once no waiters remain")
}
