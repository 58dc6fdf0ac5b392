package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/firecrawl"
)

// FirecrawlAdapter is the last rendered tier. It asks Firecrawl for the raw
// rendered HTML after the same settle delay the browser tier uses.
type FirecrawlAdapter struct {
	client firecrawl.Client
	settle time.Duration
}

// NewFirecrawlAdapter wraps a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client, settle time.Duration) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client, settle: settle}
}

func (f *FirecrawlAdapter) Name() string           { return "firecrawl" }
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Fetch scrapes link via Firecrawl. PDFs are left to the other tiers.
func (f *FirecrawlAdapter) Fetch(ctx context.Context, link string, kind model.ContentKind) (*model.RawDocument, error) {
	if kind == model.ContentPDF {
		return nil, eris.New("firecrawl: pdf documents not supported")
	}

	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     link,
		Formats: []string{firecrawl.FormatRawHTML},
		WaitFor: int(f.settle / time.Millisecond),
	})
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}
	if code := resp.Data.Metadata.StatusCode; code != 0 && code != 200 {
		return nil, eris.Errorf("firecrawl: status %d", code)
	}
	return &model.RawDocument{
		URL:    link,
		Kind:   model.ContentHTML,
		Body:   []byte(resp.Data.Markup()),
		Source: f.Name(),
	}, nil
}
