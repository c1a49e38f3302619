// Package retry bounds retries of transient failures with a fixed delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how many times and how far apart an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// Timeout bounds every single attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before every wait.
	OnRetry func(retry int, err error)
}

// ErrExhausted is wrapped into the returned error once retries run out.
var ErrExhausted = errors.New("retries exhausted")

// Do runs fn until it succeeds, returns an error that retryable rejects, or
// MaxRetries retries have failed. A per-attempt timeout that fires while ctx
// is still alive counts as retryable.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	for attempt := 0; ; attempt++ {
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt >= p.MaxRetries {
			return fmt.Errorf("%w after %d retries: %w", ErrExhausted, attempt, err)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
}

func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
