package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 5, Delay: time.Minute, Sleep: rec.sleep}

	calls := 0
	err := p.Do(context.Background(), isTransient, func(context.Context) error {
		calls++
		if calls <= 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute, time.Minute}, rec.calls)
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 5, Delay: time.Second, Sleep: rec.sleep}
	permanent := errors.New("bad request")

	calls := 0
	err := p.Do(context.Background(), isTransient, func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.calls)
}

func TestDo_Exhausted(t *testing.T) {
	rec := &sleepRecorder{}
	var retries []int
	p := Policy{
		MaxRetries: 2,
		Delay:      time.Second,
		Sleep:      rec.sleep,
		OnRetry:    func(n int, _ error) { retries = append(retries, n) },
	}

	calls := 0
	err := p.Do(context.Background(), isTransient, func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Len(t, rec.calls, 2, "no sleep after the final failure")
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_PerAttemptTimeoutIsRetried(t *testing.T) {
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 3, Timeout: 10 * time.Millisecond, Sleep: rec.sleep}

	calls := 0
	err := p.Do(context.Background(), isTransient, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, rec.calls, 1)
}

func TestDo_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &sleepRecorder{}
	p := Policy{MaxRetries: 5, Sleep: rec.sleep}

	calls := 0
	err := p.Do(ctx, isTransient, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.calls)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
