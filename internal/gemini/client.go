// Package gemini adapts the Google Gemini API to the embedding and generation ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ragsync/internal/domain"
)

// Default model names.
const (
	DefaultEmbeddingModel  = "gemini-embedding-001"
	DefaultGenerativeModel = "gemini-2.5-flash"
	DefaultAPIKeyEnv       = "GEMINI_API_KEY"
)

// NewClient opens a Gemini client with the API key read from apiKeyEnv.
func NewClient(ctx context.Context, apiKeyEnv string) (*genai.Client, error) {
	if apiKeyEnv == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}
	key := os.Getenv(apiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", apiKeyEnv)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// classify wraps throttling errors with domain.ErrRateLimited and leaves others untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsRateLimit(err) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}

// IsRateLimit reports whether err is a Gemini quota or throttling error.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "resource exhausted", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
