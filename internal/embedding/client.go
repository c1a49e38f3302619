package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ragsync/internal/domain"
	"ragsync/internal/logger"
	"ragsync/internal/retry"
)

// Defaults mirror the quota-friendly values used against the hosted embedding API.
const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = 60 * time.Second
	DefaultBatchSize  = 25
)

// Config configures retry behaviour of the embedding client.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds each provider call. Zero means no per-call deadline.
	Timeout time.Duration
}

// Client wraps a Provider with bounded rate-limit retries and result validation.
type Client struct {
	provider Provider
	policy   retry.Policy
}

// NewClient creates a client for the given provider.
// A negative MaxRetries or RetryDelay falls back to the defaults.
func NewClient(p Provider, cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	c := &Client{provider: p}
	c.policy = retry.Policy{
		MaxRetries: cfg.MaxRetries,
		Delay:      cfg.RetryDelay,
		Timeout:    cfg.Timeout,
		OnRetry: func(n int, err error) {
			logger.Warn("%s: %v; retry %d/%d in %s", p.Name(), err, n, cfg.MaxRetries, cfg.RetryDelay)
		},
	}
	return c
}

// SetSleep replaces the wait between retries. Used by tests.
func (c *Client) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	c.policy.Sleep = fn
}

// Name returns the underlying provider name.
func (c *Client) Name() string { return c.provider.Name() }

// EmbedBatch embeds texts, retrying throttled or timed-out calls with a fixed delay.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vectors [][]float32
	err := c.policy.Do(ctx, isRetryable, func(ctx context.Context) error {
		out, err := c.provider.EmbedBatch(ctx, texts, taskType)
		if err != nil {
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingFailed, c.provider.Name(), err)
	}
	if err := validate(vectors, len(texts)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingFailed, c.provider.Name(), err)
	}
	return vectors, nil
}

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text, taskType string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

func validate(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrCountMismatch, len(vectors), want)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector at position %d", i)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
