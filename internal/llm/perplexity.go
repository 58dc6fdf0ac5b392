package llm

import (
	"context"
	"errors"
	"time"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/perplexity"
)

// Perplexity generates text with Perplexity chat completions.
type Perplexity struct {
	client  perplexity.Client
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewPerplexity creates a Perplexity generator. The model is the client's.
func NewPerplexity(client perplexity.Client, retry resilience.RetryConfig, timeout time.Duration) *Perplexity {
	retry.OnRetry = resilience.RetryLogger("perplexity", "chat_completion")
	return &Perplexity{client: client, retry: retry, timeout: timeout}
}

// Generate implements Generator.
func (p *Perplexity) Generate(ctx context.Context, prompt string) (string, error) {
	req := perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{{Role: "user", Content: prompt}},
	}

	return resilience.DoVal(ctx, p.retry, func(ctx context.Context) (string, error) {
		attemptCtx, cancel := withTimeout(ctx, p.timeout)
		defer cancel()

		resp, err := p.client.ChatCompletion(attemptCtx, req)
		if err != nil {
			var apiErr *perplexity.APIError
			status := 0
			if errors.As(err, &apiErr) {
				status = apiErr.StatusCode
			}
			return "", classify(attemptCtx, err, status)
		}
		return resp.Text(), nil
	})
}
