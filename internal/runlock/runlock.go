// Package runlock serialises ingestion runs across processes with a lock file.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"ragsync/internal/domain"
)

// DefaultPath is the lock file used when none is configured.
const DefaultPath = ".ragsync.lock"

const pollInterval = 200 * time.Millisecond

// Lock is a held run lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path. With a zero wait it fails at once when another
// process holds it; otherwise it polls until wait elapses. Contention is reported
// as domain.ErrRunInProgress.
func Acquire(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
	}
	l := flock.New(path)
	if wait <= 0 {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire run lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w (lock: %s)", domain.ErrRunInProgress, path)
		}
		return &Lock{fl: l}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	locked, err := l.TryLockContext(waitCtx, pollInterval)
	switch {
	case locked:
		return &Lock{fl: l}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w (lock: %s)", domain.ErrRunInProgress, path)
	default:
		return nil, fmt.Errorf("cannot acquire run lock: %w", err)
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
