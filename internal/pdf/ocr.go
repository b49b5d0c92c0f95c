package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Engine recognizes text in a page image. An Engine is owned by exactly one
// extraction and is not safe for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	Close() error
}

// EngineFactory creates an engine configured for language.
type EngineFactory func(language string) (Engine, error)

// PageCount validates data in relaxed mode and returns its page count.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

type ocrExtraction struct {
	dir        string
	path       string
	total      int
	dpi        int
	grayscale  bool
	rasterizer Rasterizer

	mu     sync.Mutex
	engine Engine
}

func (e *Extractor) openOCR(ctx context.Context, data []byte) (*ocrExtraction, error) {
	if e.Rasterizer == nil || e.NewEngine == nil {
		return nil, errors.New("pdf: OCR requires a rasterizer and an engine")
	}
	pages, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "pdf-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	path := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}

	lang := e.Language
	if lang == "" {
		lang = DefaultOCRLanguage
	}
	engine, err := e.NewEngine(lang)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}

	return &ocrExtraction{
		dir:        dir,
		path:       path,
		total:      clampPages(pages, capOr(e.MaxOCRPages, DefaultMaxOCRPages)),
		dpi:        capOr(e.DPI, DefaultDPI),
		grayscale:  e.Grayscale,
		rasterizer: e.Rasterizer,
		engine:     engine,
	}, nil
}

func (o *ocrExtraction) Total() int { return o.total }

// Page returns the engine's output for the rendered page without trimming.
func (o *ocrExtraction) Page(ctx context.Context, index int) (models.PageResult, error) {
	res := models.PageResult{Index: index}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if index < 1 || index > o.total {
		return res, fmt.Errorf("page %d out of range 1..%d", index, o.total)
	}

	img, err := o.rasterizer.Render(ctx, o.path, index, o.dpi)
	if err != nil {
		return res, err
	}
	if o.grayscale {
		if img, err = toGrayscale(img); err != nil {
			return res, err
		}
	}

	o.mu.Lock()
	engine := o.engine
	o.mu.Unlock()
	if engine == nil {
		return res, errors.New("pdf: OCR engine already released")
	}

	text, err := engine.Recognize(ctx, img)
	if err != nil {
		return res, fmt.Errorf("recognition failed on page %d: %w", index, err)
	}
	res.Text = text
	return res, nil
}

// Close releases the engine and staged files. It is safe to call twice.
func (o *ocrExtraction) Close() error {
	o.mu.Lock()
	engine := o.engine
	o.engine = nil
	o.mu.Unlock()

	var err error
	if engine != nil {
		err = engine.Close()
	}
	if rmErr := os.RemoveAll(o.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
