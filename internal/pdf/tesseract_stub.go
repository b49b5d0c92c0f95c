//go:build !tesseract

package pdf

import "errors"

// ErrOCRNotEnabled is returned when the binary was built without the
// "tesseract" build tag. Rebuild with:
//
//	go build -tags tesseract ./...
//
// which requires libtesseract and the Arabic traineddata
// (apt-get install libtesseract-dev tesseract-ocr-ara).
var ErrOCRNotEnabled = errors.New("OCR support not compiled in; rebuild with -tags tesseract")

// TesseractAvailable reports whether the binary was built with OCR support.
const TesseractAvailable = false

// NewTesseractEngine always fails in builds without the tesseract tag.
func NewTesseractEngine(string) (Engine, error) {
	return nil, ErrOCRNotEnabled
}
