package domain

import "errors"

// Domain errors shared across component boundaries.
// Callers match them with errors.Is; adapters wrap them with context.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates a remote service throttled the request.
	// The embedding client retries it with a fixed backoff before giving up.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingFailed indicates a batch could not be embedded.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationFailed indicates the generative service returned an error.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrCountMismatch indicates chunks and embeddings differ in length.
	ErrCountMismatch = errors.New("chunk and embedding count mismatch")

	// ErrDimensionMismatch indicates a vector does not match the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollectionMissing indicates the vector collection has not been created.
	ErrCollectionMissing = errors.New("collection missing")

	// ErrRunInProgress indicates another ingestion run holds the run lock.
	ErrRunInProgress = errors.New("ingestion run in progress")

	// ErrSourceUnavailable indicates the document source could not be reached.
	ErrSourceUnavailable = errors.New("document source unavailable")
)
