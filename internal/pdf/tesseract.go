//go:build tesseract

package pdf

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractAvailable reports whether the binary was built with OCR support.
const TesseractAvailable = true

type tesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates one gosseract client for the lifetime of a run.
func NewTesseractEngine(language string) (Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", language, err)
	}
	return &tesseractEngine{client: client}, nil
}

func (t *tesseractEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

func (t *tesseractEngine) Close() error {
	return t.client.Close()
}
