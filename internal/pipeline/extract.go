package pipeline

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/chunk"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/llm"
)

const (
	defaultChunkConcurrency = 4
	defaultChunkTimeout     = 3 * time.Minute
)

const extractPrompt = `You are an expert at extracting stakeholder information from websites.
This is chunk %d of %d of one page. Extract the following from this chunk of text:
- Names of stakeholders
- Organization/Company
- Emails
- Phone numbers
- Social media links (Twitter, LinkedIn, Facebook)
- Any other relevant stakeholder data
Format your answer as JSON.

Here is an example of the JSON structure I expect:

{
    "stakeholders": [
        {
            "name": "Jane Doe",
            "organization": "Acme Corp",
            "email": "jane.doe@acmecorp.com",
            "phone": "+1234567890",
            "social_links": {
                "linkedin": "https://linkedin.com/in/janedoe",
                "twitter": "https://twitter.com/janedoe",
                "facebook": "https://facebook.com/janedoe"
            },
            "other_info": "Interested in STEM educational projects"
        }
    ]
}

Text:
%s`

// ChunkPrompt renders the extraction instruction for one chunk. Positions are
// 1-based in the prompt.
func ChunkPrompt(c chunk.Chunk) string {
	return fmt.Sprintf(extractPrompt, c.Index+1, c.Total, c.Text)
}

// ChunkExtractor sends chunks to the backend concurrently.
type ChunkExtractor struct {
	gen         llm.Generator
	concurrency int
	timeout     time.Duration
}

// ExtractorOption configures a ChunkExtractor.
type ExtractorOption func(*ChunkExtractor)

// WithChunkConcurrency bounds in-flight backend calls per page.
func WithChunkConcurrency(n int) ExtractorOption {
	return func(e *ChunkExtractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithChunkTimeout bounds each chunk's backend call, retries included.
func WithChunkTimeout(d time.Duration) ExtractorOption {
	return func(e *ChunkExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewChunkExtractor creates a ChunkExtractor.
func NewChunkExtractor(gen llm.Generator, opts ...ExtractorOption) *ChunkExtractor {
	e := &ChunkExtractor{
		gen:         gen,
		concurrency: defaultChunkConcurrency,
		timeout:     defaultChunkTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Responses returns one raw response per chunk, indexed by chunk index. A
// chunk whose call fails or times out gets an empty response; siblings are
// unaffected.
func (e *ChunkExtractor) Responses(ctx context.Context, chunks iter.Seq[chunk.Chunk]) []string {
	all := slices.Collect(chunks)
	out := make([]string, len(all))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for _, c := range all {
		g.Go(func() error {
			out[c.Index] = e.one(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *ChunkExtractor) one(ctx context.Context, c chunk.Chunk) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.gen.Generate(ctx, ChunkPrompt(c))
	if err != nil {
		zap.L().Warn("pipeline: chunk extraction failed",
			zap.Int("chunk", c.Index),
			zap.Int("total", c.Total),
			zap.Error(err),
		)
		return ""
	}
	return raw
}
