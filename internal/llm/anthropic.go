package llm

import (
	"context"
	"time"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/anthropic"
)

// Anthropic generates text with the Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	retry       resilience.RetryConfig
	timeout     time.Duration
}

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(client anthropic.Client, cfg config.AnthropicConfig, retry resilience.RetryConfig, timeout time.Duration) *Anthropic {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &Anthropic{
		client:      client,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		retry:       retry,
		timeout:     timeout,
	}
}

// Generate implements Generator.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	temp := a.temperature
	req := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}

	return resilience.DoVal(ctx, a.retry, func(ctx context.Context) (string, error) {
		attemptCtx, cancel := withTimeout(ctx, a.timeout)
		defer cancel()

		resp, err := a.client.CreateMessage(attemptCtx, req)
		if err != nil {
			return "", classify(attemptCtx, err, anthropic.StatusCode(err))
		}
		resp.Usage.LogCost(a.model, "generate")
		return resp.Text(), nil
	})
}
