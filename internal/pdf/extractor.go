// Package pdf turns an uploaded document into a sequence of per-page Arabic
// text, either from the embedded text layer or by rasterizing each page and
// running OCR on it.
package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
)

const (
	// DefaultMaxTextPages caps direct extraction.
	DefaultMaxTextPages = 400
	// DefaultMaxOCRPages caps OCR extraction, which is far more expensive.
	DefaultMaxOCRPages = 10
	// DefaultDPI renders pages at 1.5x the 72 DPI PDF user space.
	DefaultDPI = 108
	// DefaultOCRLanguage is the Tesseract language for Arabic.
	DefaultOCRLanguage = "ara"
)

// ErrEmptyDocument is returned for documents without content bytes.
var ErrEmptyDocument = errors.New("pdf: document has no data")

// Extraction yields the text of pages 1..Total() one at a time. Callers must
// Close it to release the OCR engine and temporary files.
type Extraction interface {
	Total() int
	Page(ctx context.Context, index int) (models.PageResult, error)
	Close() error
}

// Extractor opens documents in either mode.
type Extractor struct {
	MaxTextPages int
	MaxOCRPages  int
	DPI          int
	Language     string
	Grayscale    bool
	Rasterizer   Rasterizer
	NewEngine    EngineFactory
}

// NewExtractor returns an Extractor with default caps, pdftoppm rendering and
// the Tesseract engine.
func NewExtractor() *Extractor {
	return &Extractor{
		MaxTextPages: DefaultMaxTextPages,
		MaxOCRPages:  DefaultMaxOCRPages,
		DPI:          DefaultDPI,
		Language:     DefaultOCRLanguage,
		Rasterizer:   NewPopplerRasterizer(""),
		NewEngine:    NewTesseractEngine,
	}
}

// Open prepares doc for extraction in mode.
func (e *Extractor) Open(ctx context.Context, doc models.Document, mode models.Mode) (Extraction, error) {
	if len(doc.Data) == 0 {
		return nil, ErrEmptyDocument
	}
	switch mode {
	case models.ModeText:
		return openText(doc.Data, capOr(e.MaxTextPages, DefaultMaxTextPages))
	case models.ModeOCR:
		return e.openOCR(ctx, doc.Data)
	}
	return nil, fmt.Errorf("pdf: unsupported mode %q", mode)
}

func capOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func clampPages(total, limit int) int {
	if total < limit {
		return total
	}
	return limit
}
