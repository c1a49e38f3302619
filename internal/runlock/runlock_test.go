package runlock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsync/internal/domain"
)

func TestAcquire_Exclusive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "run.lock")

	first, err := Acquire(ctx, path, 0)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path())

	_, err = Acquire(ctx, path, 0)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	require.NoError(t, first.Release())

	again, err := Acquire(ctx, path, 0)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run.lock")

	first, err := Acquire(ctx, path, 0)
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = first.Release()
	}()

	second, err := Acquire(ctx, path, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquire_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	first, err := Acquire(context.Background(), path, 0)
	require.NoError(t, err)
	defer first.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Acquire(ctx, path, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_WaitElapses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	first, err := Acquire(context.Background(), path, 0)
	require.NoError(t, err)
	defer first.Release()

	start := time.Now()
	_, err = Acquire(context.Background(), path, 300*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}
