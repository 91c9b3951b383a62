package llm

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by New.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendLocal  = "local"
)

// New creates a generator for the named backend.  BackendLocal returns nil:
// the advisor treats a nil generator as "local-fallback mode" and never
// issues an external call.
func New(ctx context.Context, backend, apiKey, model string, requestTimeout time.Duration) (Generator, error) {
	switch backend {
	case BackendGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("gemini backend requires an API key")
		}
		return NewGeminiGenerator(ctx, apiKey, model, requestTimeout)
	case BackendOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return NewOpenAIGenerator(apiKey, model, requestTimeout), nil
	case BackendLocal:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported generator backend: %s", backend)
	}
}
