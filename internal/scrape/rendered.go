package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// Renderer drives a headless browser.
type Renderer interface {
	// RenderHTML navigates to link, waits settle after load, and returns the
	// serialized DOM.
	RenderHTML(ctx context.Context, link string, settle time.Duration) (string, error)
	// FetchBytes downloads link from inside the browser session, so cookies
	// and challenge tokens earned by navigation apply.
	FetchBytes(ctx context.Context, link string) ([]byte, error)
}

// RenderedFetcher is the headless-browser tier.
type RenderedFetcher struct {
	renderer   Renderer
	navTimeout time.Duration
	settle     time.Duration
}

// NewRenderedFetcher wraps a Renderer. navTimeout bounds navigation plus the
// settle delay.
func NewRenderedFetcher(r Renderer, navTimeout, settle time.Duration) *RenderedFetcher {
	return &RenderedFetcher{renderer: r, navTimeout: navTimeout, settle: settle}
}

func (f *RenderedFetcher) Name() string           { return "rendered" }
func (f *RenderedFetcher) Supports(_ string) bool { return true }

// Fetch renders HTML pages and downloads PDFs as raw bytes.
func (f *RenderedFetcher) Fetch(ctx context.Context, link string, kind model.ContentKind) (*model.RawDocument, error) {
	if f.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.navTimeout+f.settle)
		defer cancel()
	}

	doc := &model.RawDocument{URL: link, Kind: kind, Source: f.Name()}
	if kind == model.ContentPDF {
		body, err := f.renderer.FetchBytes(ctx, link)
		if err != nil {
			return nil, eris.Wrap(err, "rendered: download pdf")
		}
		doc.Body = body
		return doc, nil
	}

	markup, err := f.renderer.RenderHTML(ctx, link, f.settle)
	if err != nil {
		return nil, eris.Wrap(err, "rendered: render")
	}
	doc.Body = []byte(markup)
	return doc, nil
}
