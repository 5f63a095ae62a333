// Package content is the blob store backing VersionRecord content bytes, referenced from
// store.ObjectRecord.ContentRef. Adapted from the teacher's internal/storage.Backend /
// FilesystemBackend (temp-file-then-atomic-rename write pattern), stripped of the directory-marker
// bookkeeping that belonged to the teacher's filesystem-as-listing-index design — listing here is
// the Lister's job, driven off Store range scans, not off directory structure.
package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backend stores and retrieves content bytes addressed by an opaque reference string.
type Backend interface {
	// Put streams r to storage under the caller-chosen ref and returns the number of bytes
	// written; the same ref is passed to Get and Delete later.
	Put(ctx context.Context, ref string, r io.Reader) (size int64, err error)
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
	Close() error
}

// FilesystemBackend implements Backend over a local directory tree.
type FilesystemBackend struct {
	root string
}

// NewFilesystemBackend creates (if absent) root and returns a Backend rooted there.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating content root %s: %w", root, err)
	}
	return &FilesystemBackend{root: root}, nil
}

func (fs *FilesystemBackend) path(ref string) string {
	// Refs are hex/base32-ish opaque ids minted by the engine; fan out two levels deep by prefix
	// to avoid a single directory with millions of entries.
	if len(ref) >= 4 {
		return filepath.Join(fs.root, ref[0:2], ref[2:4], ref)
	}
	return filepath.Join(fs.root, ref)
}

func (fs *FilesystemBackend) Put(ctx context.Context, ref string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	full := fs.path(ref)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating content directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("writing content: %w", err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		return 0, fmt.Errorf("committing content to %s: %w", full, err)
	}
	return size, nil
}

func (fs *FilesystemBackend) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(fs.path(ref))
	if os.IsNotExist(err) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening content %s: %w", ref, err)
	}
	return f, nil
}

func (fs *FilesystemBackend) Delete(ctx context.Context, ref string) error {
	err := os.Remove(fs.path(ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting content %s: %w", ref, err)
	}
	return nil
}

func (fs *FilesystemBackend) Close() error { return nil }

// ErrContentNotFound is returned by Get when ref has no stored bytes.
var ErrContentNotFound = fmt.Errorf("content not found")
