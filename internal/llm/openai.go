package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator calls the OpenAI chat completion API.  Alternative backend
// for deployments without Gemini access.
type OpenAIGenerator struct {
	client         *openai.Client
	model          string
	requestTimeout time.Duration
}

// NewOpenAIGenerator constructs an OpenAI-backed generator.
func NewOpenAIGenerator(apiKey, model string, requestTimeout time.Duration) *OpenAIGenerator {
	if model == "" {
		// default to a modern small model; can be overridden via config
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		client:         openai.NewClient(apiKey),
		model:          model,
		requestTimeout: requestTimeout,
	}
}

// Generate sends the prompt as a single user message and returns the
// assistant's response.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps go-openai failures into the package taxonomy.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}
	return err
}
