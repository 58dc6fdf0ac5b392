package pipeline

import (
	"context"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/chunk"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/normalize"
)

const defaultChunkMaxChars = 8000

// PageFetcher returns the raw document for a link. It never fails; an
// unreachable page comes back empty.
type PageFetcher interface {
	Fetch(ctx context.Context, link string) *model.RawDocument
}

// SignalExtractor pulls deterministic contact signals from a document.
type SignalExtractor interface {
	Extract(ctx context.Context, doc *model.RawDocument) model.Signals
}

// Processor turns one candidate page into a page record.
type Processor struct {
	fetcher   PageFetcher
	signals   SignalExtractor
	extractor *ChunkExtractor
	chunkMax  int
}

// NewProcessor creates a Processor. chunkMax <= 0 selects the default of
// 8000 characters.
func NewProcessor(f PageFetcher, s SignalExtractor, e *ChunkExtractor, chunkMax int) *Processor {
	if chunkMax <= 0 {
		chunkMax = defaultChunkMaxChars
	}
	return &Processor{fetcher: f, signals: s, extractor: e, chunkMax: chunkMax}
}

// Process fetches page, extracts signals, and runs stakeholder extraction
// over the cleaned text. A panic anywhere inside is recovered into an empty
// record plus an error, so sibling pages keep going.
func (p *Processor) Process(ctx context.Context, page model.CandidatePage) (rec model.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: page processing panicked",
				zap.String("url", page.Link),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			rec = model.EmptyPageRecord(page)
			err = eris.Errorf("pipeline: process %s: panic: %v", page.Link, r)
		}
	}()

	log := zap.L().With(zap.String("url", page.Link))

	doc := p.fetcher.Fetch(ctx, page.Link)
	sig := p.signals.Extract(ctx, doc)

	rec = model.EmptyPageRecord(page)
	rec.Emails = nonNil(sig.Emails)
	rec.SocialLinks = nonNil(sig.SocialLinks)
	rec.PhoneLinks = nonNil(sig.PhoneNumbers)

	if sig.CleanedText == "" {
		log.Debug("pipeline: no text, skipping extraction", zap.Bool("empty_doc", doc.Empty()))
		return rec, nil
	}

	chunks, err := chunk.Split(sig.CleanedText, p.chunkMax)
	if err != nil {
		return rec, eris.Wrapf(err, "pipeline: chunk %s", page.Link)
	}

	rec.StakeholderDetails = normalize.Normalize(p.extractor.Responses(ctx, chunks))

	log.Info("pipeline: page processed",
		zap.Int("chunks", chunk.Count(sig.CleanedText, p.chunkMax)),
		zap.Int("stakeholders", len(rec.StakeholderDetails.Stakeholders)),
		zap.Int("parse_errors", len(rec.StakeholderDetails.Errors)),
		zap.Int("emails", len(rec.Emails)),
	)
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
