package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
)

// Rasterizer renders one page of a PDF file to PNG bytes.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath string, page, dpi int) ([]byte, error)
}

// PopplerRasterizer shells out to pdftoppm.
type PopplerRasterizer struct {
	Command string
}

// NewPopplerRasterizer uses command, or "pdftoppm" from PATH when empty.
func NewPopplerRasterizer(command string) *PopplerRasterizer {
	if command == "" {
		command = "pdftoppm"
	}
	return &PopplerRasterizer{Command: command}
}

func (p *PopplerRasterizer) Render(ctx context.Context, pdfPath string, page, dpi int) ([]byte, error) {
	if _, err := exec.LookPath(p.Command); err != nil {
		return nil, fmt.Errorf("%s not found, install poppler-utils (apt-get install poppler-utils / brew install poppler): %w", p.Command, err)
	}

	outDir, err := os.MkdirTemp("", "pdf-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	prefix := filepath.Join(outDir, "page")
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.Command,
		"-f", n, "-l", n,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w, output: %s", page, err, bytes.TrimSpace(out))
	}

	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered page %d: %w", page, err)
	}
	return img, nil
}

// toGrayscale re-encodes a rendered page as a grayscale PNG.
func toGrayscale(img []byte) ([]byte, error) {
	if len(img) == 0 {
		return nil, errors.New("empty image")
	}
	decoded, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Grayscale(decoded), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
