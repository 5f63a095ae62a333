package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	pebblev1 "github.com/cockroachdb/pebble"
)

// MigrateV1ToV2 copies every key/value out of a pre-v2 on-disk Pebble database into a freshly
// opened v2 store at dstDir. It exists only to carry data forward across the pebble -> pebble/v2
// on-disk format change; it is not part of normal operation. Grounded on the teacher's go.mod
// comment marking the v1 import "legacy: only used for v1->v2 on-disk migration".
func MigrateV1ToV2(srcDir, dstDir string) error {
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return fmt.Errorf("migration source %s does not exist: %w", srcDir, err)
	}

	src, err := pebblev1.Open(srcDir, &pebblev1.Options{})
	if err != nil {
		return fmt.Errorf("opening legacy v1 store at %s: %w", srcDir, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstDir), 0o755); err != nil {
		return fmt.Errorf("preparing migration destination: %w", err)
	}

	dst, err := NewPebbleStore(PebbleOptions{DataDir: dstDir})
	if err != nil {
		return fmt.Errorf("opening v2 destination store at %s: %w", dstDir, err)
	}
	defer dst.Close()

	iter, err := src.NewIter(&pebblev1.IterOptions{})
	if err != nil {
		return fmt.Errorf("iterating legacy store: %w", err)
	}
	defer iter.Close()

	const batchSize = 1000
	sets := make(map[string][]byte, batchSize)
	flush := func() error {
		if len(sets) == 0 {
			return nil
		}
		if err := dst.RawBatch(context.Background(), sets, nil); err != nil {
			return err
		}
		sets = make(map[string][]byte, batchSize)
		return nil
	}

	for valid := iter.First(); valid; valid = iter.Next() {
		v := make([]byte, len(iter.Value()))
		copy(v, iter.Value())
		sets[string(iter.Key())] = v
		if len(sets) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return flush()
}
