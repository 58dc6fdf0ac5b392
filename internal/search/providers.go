package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/google"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/jina"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/serpapi"
)

// Google searches through the Custom Search JSON API.
type Google struct {
	client google.Client
}

// NewGoogle wraps a Custom Search client.
func NewGoogle(c google.Client) *Google { return &Google{client: c} }

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, num int) ([]model.CandidatePage, error) {
	items, err := g.client.Search(ctx, query, num)
	if err != nil {
		return nil, err
	}
	pages := make([]model.CandidatePage, 0, len(items))
	for _, it := range items {
		pages = append(pages, model.CandidatePage{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
	}
	return pages, nil
}

// SerpAPI searches through serpapi.com.
type SerpAPI struct {
	client serpapi.Client
}

// NewSerpAPI wraps a SerpAPI client.
func NewSerpAPI(c serpapi.Client) *SerpAPI { return &SerpAPI{client: c} }

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, num int) ([]model.CandidatePage, error) {
	results, err := s.client.Search(ctx, query, num)
	if err != nil {
		return nil, err
	}
	pages := make([]model.CandidatePage, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			continue
		}
		pages = append(pages, model.CandidatePage{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return pages, nil
}

// Jina searches through s.jina.ai.
type Jina struct {
	client jina.Client
}

// NewJina wraps a Jina client.
func NewJina(c jina.Client) *Jina { return &Jina{client: c} }

func (j *Jina) Name() string { return "jina" }

func (j *Jina) Search(ctx context.Context, query string, num int) ([]model.CandidatePage, error) {
	resp, err := j.client.Search(ctx, query, jina.WithCount(num))
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, eris.New("jina: empty search response")
	}
	pages := make([]model.CandidatePage, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.URL == "" {
			continue
		}
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		pages = append(pages, model.CandidatePage{Title: r.Title, Link: r.URL, Snippet: snippet})
		if num > 0 && len(pages) == num {
			break
		}
	}
	return pages, nil
}
