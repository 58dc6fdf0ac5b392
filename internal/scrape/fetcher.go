// Package scrape fetches candidate pages. A plain HTTP GET is tried first;
// when its body is unusable the rendered tiers (headless browser, Jina
// Reader, Firecrawl) are tried in order.
package scrape

import (
	"context"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// Fetcher retrieves the raw bytes of one page.
type Fetcher interface {
	// Fetch returns the document at link. kind is the caller's best guess
	// from the URL; a fetcher may correct it from the response.
	Fetch(ctx context.Context, link string, kind model.ContentKind) (*model.RawDocument, error)
	Name() string
	Supports(link string) bool
}
