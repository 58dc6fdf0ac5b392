// Package llm adapts the text-generation APIs to a single Generate call
// used for query generation and per-chunk stakeholder extraction.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/anthropic"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/perplexity"
)

// Generator turns a prompt into raw model text. The text carries no shape
// guarantee.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the generator selected by cfg.Backend.Provider.
func New(cfg *config.Config) (Generator, error) {
	retry := resilience.FromBackendConfig(cfg.Backend)
	timeout := time.Duration(cfg.Backend.TimeoutSecs) * time.Second

	switch cfg.Backend.Provider {
	case "anthropic", "":
		client := anthropic.NewClient(cfg.Anthropic.Key)
		return NewAnthropic(client, cfg.Anthropic, retry, timeout), nil
	case "perplexity":
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return NewPerplexity(client, retry, timeout), nil
	default:
		return nil, eris.Errorf("llm: unknown backend provider %q", cfg.Backend.Provider)
	}
}

// withTimeout bounds one attempt. Zero means no per-attempt bound.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// classify marks retryable HTTP statuses and per-attempt timeouts as
// transient.
func classify(attemptCtx context.Context, err error, status int) error {
	if status == 529 || resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	if status == 0 && attemptCtx.Err() == context.DeadlineExceeded {
		return resilience.NewTransientError(err, 0)
	}
	return err
}
