// Package llm wraps the generative-language backends behind a single
// Generate call.  Backends translate their provider-specific failures into
// the small error taxonomy below; the retry and fallback discipline around
// Generate lives in the advisor, not here.
package llm

import (
	"context"
	"errors"
)

// Generator produces free text for a prompt.  Implementations may fail with
// ErrQuotaExceeded, ErrTimeout, or any other error (treated as unknown).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrQuotaExceeded signals a rate-limit or quota rejection from the
	// provider.  Retried with exponential backoff.
	ErrQuotaExceeded = errors.New("llm: quota exceeded")
	// ErrTimeout signals the provider did not answer in time.  Retried with
	// linear backoff.
	ErrTimeout = errors.New("llm: request timed out")
	// ErrEmptyResponse signals the provider answered with no candidates.
	ErrEmptyResponse = errors.New("llm: empty response")
)
