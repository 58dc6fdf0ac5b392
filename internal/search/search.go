// Package search fans a query out to the configured web search providers
// and concatenates their results in provider order.
package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/google"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/jina"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/serpapi"
)

// Provider is one web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, num int) ([]model.CandidatePage, error)
}

// Aggregator queries every provider for the same query. A provider that
// fails contributes nothing; it never fails the aggregate.
type Aggregator struct {
	providers []Provider
	limiters  []*rate.Limiter
	timeout   time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithRate limits each provider to perSec requests per second (burst 1).
// Zero or negative disables limiting.
func WithRate(perSec float64) AggregatorOption {
	return func(a *Aggregator) {
		for i := range a.limiters {
			if perSec > 0 {
				a.limiters[i] = rate.NewLimiter(rate.Limit(perSec), 1)
			} else {
				a.limiters[i] = nil
			}
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// NewAggregator builds an aggregator over providers, searched in the given order.
func NewAggregator(providers []Provider, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		providers: providers,
		limiters:  make([]*rate.Limiter, len(providers)),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Search returns the concatenation of every provider's results for query.
func (a *Aggregator) Search(ctx context.Context, query string, num int) []model.CandidatePage {
	slots := make([][]model.CandidatePage, len(a.providers))

	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			slots[i] = a.searchOne(ctx, i, p, query, num)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.CandidatePage
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

func (a *Aggregator) searchOne(ctx context.Context, i int, p Provider, query string, num int) []model.CandidatePage {
	log := zap.L().With(zap.String("provider", p.Name()), zap.String("query", query))

	if lim := a.limiters[i]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			log.Warn("search: rate limiter wait failed", zap.Error(err))
			return nil
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	pages, err := p.Search(ctx, query, num)
	if err != nil {
		log.Warn("search: provider failed", zap.Error(err))
		return nil
	}
	for j := range pages {
		pages[j].Query = query
	}
	log.Debug("search: provider returned", zap.Int("results", len(pages)))
	return pages
}

// New builds an Aggregator from the configured provider list.
func New(ctx context.Context, cfg *config.Config) (*Aggregator, error) {
	var providers []Provider
	for _, name := range cfg.Search.Providers {
		switch name {
		case "google":
			c, err := google.NewClient(ctx, cfg.Google.Key, cfg.Google.CX, google.WithBaseURL(cfg.Google.BaseURL))
			if err != nil {
				return nil, eris.Wrap(err, "search: google client")
			}
			providers = append(providers, NewGoogle(c))
		case "serpapi":
			providers = append(providers, NewSerpAPI(serpapi.NewClient(cfg.SerpAPI.Key, serpapi.WithBaseURL(cfg.SerpAPI.BaseURL))))
		case "jina":
			providers = append(providers, NewJina(jina.NewClient(cfg.Jina.Key,
				jina.WithBaseURL(cfg.Jina.BaseURL),
				jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
			)))
		default:
			return nil, eris.Errorf("search: unknown provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, eris.New("search: no providers configured")
	}
	return NewAggregator(providers,
		WithRate(cfg.Search.RatePerSec),
		WithTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second),
	), nil
}
