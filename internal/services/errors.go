package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
)

// Validation failures. A run that fails with one of these never starts.
var (
	ErrNoDocument       = errors.New("no document selected")
	ErrDocumentTooLarge = errors.New("document exceeds the size limit")
	ErrNoCredential     = errors.New("no API key configured")
	ErrRunActive        = errors.New("a translation run is already active")
	ErrInvalidAPIKey    = errors.New("API key must not be empty")
	ErrInvalidTheme     = errors.New(`theme must be "light" or "dark"`)
	ErrRefusal          = errors.New("model response indicates a refusal")
	ErrHistoryNotFound  = errors.New("history entry not found")
	ErrNothingToRead    = errors.New("no text to read aloud")
)

// ExtractionError aborts a run when a page cannot be read.
type ExtractionError struct {
	Mode models.Mode
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s extraction failed on page %d: %v", e.Mode, e.Page, e.Err)
	}
	return fmt.Sprintf("%s extraction failed: %v", e.Mode, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TranslationError aborts a run when the remote endpoint fails for a page.
type TranslationError struct {
	Page int
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed on page %d: %v", e.Page, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// userMessage renders err as the Bangla alert text shown to the user.
func userMessage(err error) string {
	var extractErr *ExtractionError
	var translateErr *TranslationError
	switch {
	case errors.Is(err, ErrNoDocument):
		return "দয়া করে প্রথমে একটি PDF ফাইল সিলেক্ট করুন।"
	case errors.Is(err, ErrNoCredential):
		return "দয়া করে প্রথমে একটি বৈধ জিমিনি API কী সেট করুন।"
	case errors.Is(err, ErrDocumentTooLarge):
		return "ফাইল খুব বড়! দয়া করে ২০ এমবি-এর ছোট ফাইল আপলোড করুন।"
	case errors.Is(err, ErrRunActive):
		return "একটি অনুবাদ ইতিমধ্যে চলছে।"
	case errors.Is(err, ErrNothingToRead):
		return "পড়ার জন্য কোনো টেক্সট নেই।"
	case errors.Is(err, ErrInvalidAPIKey):
		return "দয়া করে একটি বৈধ API দিন।"
	case errors.As(err, &translateErr):
		return "ত্রুটি: অনুবাদ ব্যর্থ: " + translateErr.Err.Error()
	case errors.As(err, &extractErr):
		if extractErr.Mode == models.ModeOCR {
			return "ত্রুটি: OCR ত্রুটি: " + extractErr.Err.Error()
		}
		return "ত্রুটি: PDF পড়তে সমস্যা: " + extractErr.Err.Error()
	}
	return "ত্রুটি: অনুবাদ করতে সমস্যা হয়েছে"
}
