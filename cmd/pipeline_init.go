package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/llm"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/ocr"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/pipeline"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/scrape"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/search"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/signals"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/firecrawl"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/jina"
)

// pipelineEnv holds the components shared by the run and serve commands.
type pipelineEnv struct {
	Pipeline  *pipeline.Pipeline
	Converter ocr.Extractor
	Fetcher   *scrape.Chain
	Signals   *signals.Extractor
	renderer  *scrape.RodRenderer
}

// Close releases the headless browser, if one was started.
func (pe *pipelineEnv) Close() {
	if pe.renderer != nil {
		if err := pe.renderer.Close(); err != nil {
			zap.L().Warn("close renderer", zap.Error(err))
		}
	}
}

// initFetch builds the document converter, the fetch chain, and the signal
// extractor. These need no API keys beyond the optional fallback tiers.
func initFetch(c *config.Config) (*pipelineEnv, error) {
	converter, err := ocr.NewExtractor(c.OCR)
	if err != nil {
		return nil, eris.Wrap(err, "init converter")
	}

	static := scrape.NewStaticFetcher(
		time.Duration(c.Fetch.StaticTimeoutSecs)*time.Second,
		scrape.WithUserAgent(c.Fetch.UserAgent),
		scrape.WithMaxBodyBytes(c.Fetch.MaxBodyBytes),
	)

	env := &pipelineEnv{Converter: converter}

	settle := time.Duration(c.Fetch.Render.SettleMS) * time.Millisecond
	var rendered []scrape.Fetcher
	if c.Fetch.Render.Enabled {
		env.renderer = scrape.NewRodRenderer(c.Fetch.Render.RemoteURL)
		rendered = append(rendered, scrape.NewRenderedFetcher(
			env.renderer,
			time.Duration(c.Fetch.Render.NavTimeoutSecs)*time.Second,
			settle,
		))
	}
	if c.Jina.Key != "" {
		rendered = append(rendered, scrape.NewJinaAdapter(jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))))
	}
	if c.Firecrawl.Key != "" {
		rendered = append(rendered, scrape.NewFirecrawlAdapter(
			firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL)),
			settle,
		))
	}
	if len(rendered) == 0 {
		zap.L().Warn("no rendered fetch tier configured, short static pages will not be retried")
	}

	env.Fetcher = scrape.NewChain(static, c.Fetch.MinBodyChars, rendered...)

	var sigOpts []signals.Option
	if len(c.Extract.SocialDomains) > 0 {
		sigOpts = append(sigOpts, signals.WithSocialDomains(c.Extract.SocialDomains))
	}
	env.Signals = signals.NewExtractor(converter, sigOpts...)

	return env, nil
}

// initPipeline validates the configuration for mode and builds the full
// pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	gen, err := llm.New(c)
	if err != nil {
		return nil, eris.Wrap(err, "init backend")
	}

	searcher, err := search.New(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "init search")
	}

	env, err := initFetch(c)
	if err != nil {
		return nil, err
	}

	extractor := pipeline.NewChunkExtractor(gen,
		pipeline.WithChunkConcurrency(c.Extract.MaxConcurrentChunks),
		pipeline.WithChunkTimeout(time.Duration(c.Extract.ChunkTimeoutSecs)*time.Second),
	)
	proc := pipeline.NewProcessor(env.Fetcher, env.Signals, extractor, c.Extract.ChunkMaxChars)
	env.Pipeline = pipeline.New(gen, searcher, proc, pipeline.OptionsFromConfig(c)...)

	zap.L().Info("pipeline initialized",
		zap.String("backend", c.Backend.Provider),
		zap.Strings("search_providers", c.Search.Providers),
		zap.Bool("render", c.Fetch.Render.Enabled),
	)
	return env, nil
}
