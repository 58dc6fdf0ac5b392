// Package pipeline drives a stakeholder discovery run: query generation,
// search, and concurrent per-page extraction.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/llm"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// ErrEmptyProject is returned when the project description is blank.
var ErrEmptyProject = eris.New("pipeline: project text is empty")

const (
	defaultQueryCount      = 3
	defaultResultsPerQuery = 3
	defaultMaxPages        = 5
	searchConcurrency      = 4
)

// Searcher returns candidate pages for one query. Provider failures are
// absorbed, so it has no error.
type Searcher interface {
	Search(ctx context.Context, query string, num int) []model.CandidatePage
}

// PageProcessor turns a candidate page into a page record.
type PageProcessor interface {
	Process(ctx context.Context, page model.CandidatePage) (model.PageRecord, error)
}

// Pipeline runs the stage sequence start, queries_generated, searched,
// pages_processed.
type Pipeline struct {
	gen             llm.Generator
	searcher        Searcher
	processor       PageProcessor
	queryCount      int
	resultsPerQuery int
	maxPages        int
	now             func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithQueryCount sets how many queries to request from the backend.
func WithQueryCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queryCount = n
		}
	}
}

// WithResultsPerQuery sets how many results each search requests.
func WithResultsPerQuery(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.resultsPerQuery = n
		}
	}
}

// WithMaxConcurrentPages bounds pages processed at once.
func WithMaxConcurrentPages(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// New creates a Pipeline.
func New(gen llm.Generator, searcher Searcher, processor PageProcessor, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:             gen,
		searcher:        searcher,
		processor:       processor,
		queryCount:      defaultQueryCount,
		resultsPerQuery: defaultResultsPerQuery,
		maxPages:        defaultMaxPages,
		now:             time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// OptionsFromConfig maps the search and extract settings onto Options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithQueryCount(cfg.Search.QueryCount),
		WithResultsPerQuery(cfg.Search.ResultsPerQuery),
		WithMaxConcurrentPages(cfg.Extract.MaxConcurrentPages),
	}
}

// Run executes one discovery run. The returned result is never nil. When the
// run fails before pages are processed, the error is set and the result
// carries no stakeholders.
func (p *Pipeline) Run(ctx context.Context, projectText string) (result *model.RunResult, err error) {
	started := p.now()
	result = model.NewRunResult(uuid.NewString(), started)
	log := zap.L().With(zap.String("run_id", result.RunID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: run panicked", zap.Any("panic", r))
			result = abort(result)
			err = eris.Errorf("pipeline: run panic: %v", r)
		}
		result.Elapsed = p.now().Sub(started)
	}()

	if strings.TrimSpace(projectText) == "" {
		return result, ErrEmptyProject
	}

	log.Info("pipeline: starting run", zap.Int("project_chars", len(projectText)))

	queries, err := GenerateQueries(ctx, p.gen, projectText, p.queryCount)
	if err != nil {
		log.Error("pipeline: query generation failed", zap.Error(err))
		return abort(result), err
	}
	result.Queries = queries
	p.advance(log, result, model.StageQueriesGenerated, started)

	pages := p.SearchAll(ctx, queries)
	p.advance(log, result, model.StageSearched, started, zap.Int("pages", len(pages)))

	result.Pages = p.ProcessAll(ctx, pages)
	for _, rec := range result.Pages {
		result.Stakeholders = append(result.Stakeholders, rec.StakeholderDetails.Stakeholders...)
	}
	p.advance(log, result, model.StagePagesProcessed, started,
		zap.Int("stakeholders", len(result.Stakeholders)),
	)

	return result, nil
}

// SearchAll searches every query concurrently and returns the candidate
// pages in query order. A link found by several queries is kept once, under
// the first query that found it.
func (p *Pipeline) SearchAll(ctx context.Context, queries []string) []model.CandidatePage {
	slots := make([][]model.CandidatePage, len(queries))

	var g errgroup.Group
	g.SetLimit(searchConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			slots[i] = p.searcher.Search(ctx, q, p.resultsPerQuery)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var pages []model.CandidatePage
	for i, slot := range slots {
		for _, page := range slot {
			if page.Link == "" || seen[page.Link] {
				continue
			}
			seen[page.Link] = true
			if page.Query == "" {
				page.Query = queries[i]
			}
			pages = append(pages, page)
		}
	}
	return pages
}

// ProcessAll processes pages concurrently and returns their records in page
// order. A page that fails contributes an empty record.
func (p *Pipeline) ProcessAll(ctx context.Context, pages []model.CandidatePage) []model.PageRecord {
	records := make([]model.PageRecord, len(pages))

	var g errgroup.Group
	g.SetLimit(p.maxPages)
	for i, page := range pages {
		g.Go(func() error {
			rec, err := p.processor.Process(ctx, page)
			if err != nil {
				zap.L().Warn("pipeline: page failed", zap.String("url", page.Link), zap.Error(err))
				rec = model.EmptyPageRecord(page)
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func (p *Pipeline) advance(log *zap.Logger, result *model.RunResult, stage model.Stage, started time.Time, fields ...zap.Field) {
	result.Stage = stage
	log.Info("pipeline: stage complete", append([]zap.Field{
		zap.String("stage", string(stage)),
		zap.Int64("elapsed_ms", p.now().Sub(started).Milliseconds()),
	}, fields...)...)
}

// abort discards partial progress, keeping the run identity.
func abort(result *model.RunResult) *model.RunResult {
	return model.NewRunResult(result.RunID, result.StartedAt)
}
