package scrape

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// Chain applies the two-tier fetch policy: the static fetcher first, then
// each rendered tier in order until one returns a non-empty body.
type Chain struct {
	static       Fetcher
	rendered     []Fetcher
	minBodyChars int
}

// NewChain creates a Chain. A static HTML body shorter than minBodyChars
// characters is treated as unusable.
func NewChain(static Fetcher, minBodyChars int, rendered ...Fetcher) *Chain {
	return &Chain{static: static, rendered: rendered, minBodyChars: minBodyChars}
}

// Fetch never fails. When every tier fails it returns an empty document of
// the kind inferred from the URL.
func (c *Chain) Fetch(ctx context.Context, link string) *model.RawDocument {
	kind := model.KindFromURL(link)

	var fallback *model.RawDocument
	if c.static != nil {
		doc, err := c.static.Fetch(ctx, link, kind)
		switch {
		case err != nil:
			zap.L().Debug("scrape: static fetch failed", zap.String("url", link), zap.Error(err))
		case c.usable(doc):
			return doc
		default:
			zap.L().Debug("scrape: static body too short",
				zap.String("url", link),
				zap.Int("chars", utf8.RuneCount(doc.Body)),
			)
			kind = doc.Kind
			if !doc.Empty() {
				fallback = doc
			}
		}
	}

	for _, f := range c.rendered {
		if !f.Supports(link) {
			continue
		}
		doc, err := f.Fetch(ctx, link, kind)
		if err != nil {
			zap.L().Debug("scrape: rendered tier failed",
				zap.String("tier", f.Name()),
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}
		if !doc.Empty() {
			return doc
		}
	}

	if fallback != nil {
		return fallback
	}
	zap.L().Warn("scrape: all fetch tiers failed", zap.String("url", link))
	return &model.RawDocument{URL: link, Kind: kind}
}

func (c *Chain) usable(doc *model.RawDocument) bool {
	if doc.Empty() {
		return false
	}
	if doc.Kind == model.ContentPDF {
		return true
	}
	return utf8.RuneCount(doc.Body) >= c.minBodyChars
}
