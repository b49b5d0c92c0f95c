//go:build !tesseract

package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTesseractEngine_Stub(t *testing.T) {
	_, err := NewTesseractEngine("ara")
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
}
