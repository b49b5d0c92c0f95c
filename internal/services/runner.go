package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/pdf"
)

const (
	DefaultTextPageDelay = 2 * time.Second
	DefaultOCRPageDelay  = 2500 * time.Millisecond

	pageBlockFormat = "পৃষ্ঠা %d:\n%s\n\n"
)

// DocumentOpener is satisfied by *pdf.Extractor.
type DocumentOpener interface {
	Open(ctx context.Context, doc models.Document, mode models.Mode) (pdf.Extraction, error)
}

// PageTranslator is satisfied by *Translator.
type PageTranslator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Progress is reported after each buffer change and after each page.
type Progress struct {
	Page    int
	Total   int
	Percent int
	Arabic  string
	Bangla  string
}

// RunResult is what a finished, stopped or failed run leaves behind.
type RunResult struct {
	Pages  int
	Arabic string
	Bangla string
}

// Runner drives one document through extraction and translation, page by page.
type Runner struct {
	extractor  DocumentOpener
	translator PageTranslator
	textDelay  time.Duration
	ocrDelay   time.Duration
}

func NewRunner(extractor DocumentOpener, translator PageTranslator, textDelay, ocrDelay time.Duration) *Runner {
	return &Runner{extractor: extractor, translator: translator, textDelay: textDelay, ocrDelay: ocrDelay}
}

// Run processes pages strictly in order. Cancellation is polled before each
// page and before each translation; when it is seen Run returns ctx.Err()
// with whatever was accumulated so far. The extraction, and with it any OCR
// engine, is closed before Run returns.
func (r *Runner) Run(ctx context.Context, logCtx *slog.Logger, doc models.Document, mode models.Mode, observe func(Progress)) (RunResult, error) {
	if observe == nil {
		observe = func(Progress) {}
	}
	var res RunResult

	ex, err := r.extractor.Open(ctx, doc, mode)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, &ExtractionError{Mode: mode, Err: err}
	}
	defer func() {
		if err := ex.Close(); err != nil {
			logCtx.Warn("Failed to release extraction resources.", "error", err)
		}
	}()

	total := ex.Total()
	res.Pages = total
	delay := r.textDelay
	if mode == models.ModeOCR {
		delay = r.ocrDelay
	}
	logCtx.Info("Document opened.", "totalPages", total)
	observe(Progress{Total: total})

	var arabic, bangla strings.Builder
	snapshot := func(page, percent int) Progress {
		res.Arabic, res.Bangla = arabic.String(), bangla.String()
		return Progress{Page: page, Total: total, Percent: percent, Arabic: res.Arabic, Bangla: res.Bangla}
	}

	percent := 0
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			logCtx.Info("Run cancelled before page.", "page", i)
			return res, err
		}

		page, err := ex.Page(ctx, i)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, &ExtractionError{Mode: mode, Page: i, Err: err}
		}

		if strings.TrimSpace(page.Text) != "" {
			fmt.Fprintf(&arabic, pageBlockFormat, i, page.Text)
			observe(snapshot(i, percent))

			translated, err := r.translator.Translate(ctx, page.Text)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				return res, &TranslationError{Page: i, Err: err}
			}
			fmt.Fprintf(&bangla, pageBlockFormat, i, translated)
			logCtx.Info("Page translated.", "page", i, "sourceRunes", len([]rune(page.Text)))
		} else {
			logCtx.Info("Page has no text. Skipping translation.", "page", i)
		}

		pagesProcessed.WithLabelValues(string(mode)).Inc()
		// Floor keeps 100 reserved for the last page.
		percent = i * 100 / total
		observe(snapshot(i, percent))

		if i < total {
			if err := sleepCtx(ctx, delay); err != nil {
				return res, err
			}
		}
	}
	res.Arabic, res.Bangla = arabic.String(), bangla.String()
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func successMessage(mode models.Mode, pages int) string {
	if mode == models.ModeOCR {
		return fmt.Sprintf("%d পৃষ্ঠা OCR এবং অনুবাদ সম্পূর্ণ!", pages)
	}
	return fmt.Sprintf("%d পৃষ্ঠা সফলভাবে অনুবাদ করা হয়েছে!", pages)
}
