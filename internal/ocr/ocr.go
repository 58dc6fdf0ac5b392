// Package ocr converts PDF documents to plain text.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
)

// Extractor extracts text content from PDF bytes. Pages are joined with a
// newline; a page with no extractable text contributes an empty string.
type Extractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "pdfcpu", "":
		return NewPdfCPU(), nil
	case "local":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
