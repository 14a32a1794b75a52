package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
)

// LockFileName is the advisory writer lock inside an index directory.
const LockFileName = ".build.lock"

// lockRetryDelay is how often a blocked writer retries the lock.
const lockRetryDelay = 50 * time.Millisecond

// WriteFileAtomic streams write's output into a temporary file next to path
// and renames it over path. Readers see either the old file or the complete
// new one. Nothing is renamed if write fails or ctx is done.
func WriteFileAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	pending, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := write(pending); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pending.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// LockDir takes the advisory writer lock for dir, waiting until it is free
// or ctx is done. The returned function releases it.
func LockDir(ctx context.Context, dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire index lock on %s", dir)
	}
	return lock.Unlock, nil
}
