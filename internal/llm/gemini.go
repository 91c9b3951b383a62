package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	genai "google.golang.org/genai"
)

// GeminiGenerator is a thin wrapper around the official genai client.  The
// original scanner ran on Gemini, so this is the default production backend.
type GeminiGenerator struct {
	cli            *genai.Client
	model          string
	requestTimeout time.Duration
}

// NewGeminiGenerator constructs a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, requestTimeout time.Duration) (*GeminiGenerator, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-pro"
	}
	return &GeminiGenerator{cli: cli, model: model, requestTimeout: requestTimeout}, nil
}

// Generate sends the prompt and returns the first candidate's text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// classifyGeminiError maps genai failures into the package taxonomy.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}
	return err
}
