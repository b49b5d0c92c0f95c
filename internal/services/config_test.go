package services

import (
	"os"
	"testing"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"GEMINI_API_KEY", "GEMINI_API_URL", "GEMINI_MODEL", "GEMINI_MAX_RPM",
	"TRANSLATION_BACKEND", "PROJECT_ID", "VERTEX_AI_REGION", "VERTEX_MODEL",
	"STORE_BACKEND", "STORE_PATH", "FIRESTORE_COLLECTION", "ARTIFACT_BUCKET",
	"MAX_FILE_SIZE_MB", "MAX_TEXT_PAGES", "MAX_OCR_PAGES", "RENDER_DPI",
	"OCR_LANGUAGE", "OCR_GRAYSCALE", "PDFTOPPM_PATH", "TTS_COMMAND",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.GeminiBaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 15, cfg.GeminiMaxRPM)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, "data/store.json", cfg.StorePath)
	assert.Equal(t, int64(20<<20), cfg.MaxFileSizeBytes)
	assert.Equal(t, 400, cfg.MaxTextPages)
	assert.Equal(t, 10, cfg.MaxOCRPages)
	assert.Equal(t, 108, cfg.RenderDPI)
	assert.Equal(t, "ara", cfg.OCRLanguage)
	assert.False(t, cfg.OCRGrayscale)
	assert.Equal(t, DefaultTextPageDelay, cfg.TextPageDelay)
	assert.Equal(t, DefaultOCRPageDelay, cfg.OCRPageDelay)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"TRANSLATION_BACKEND": "openai"}},
		{"vertex without project", map[string]string{"TRANSLATION_BACKEND": "vertex"}},
		{"firestore without project", map[string]string{"STORE_BACKEND": "firestore"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "redis"}},
		{"bad rpm", map[string]string{"GEMINI_MAX_RPM": "fast"}},
		{"zero size", map[string]string{"MAX_FILE_SIZE_MB": "0"}},
		{"bad grayscale", map[string]string{"OCR_GRAYSCALE": "sometimes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_Vertex(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TRANSLATION_BACKEND", "vertex")
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("MAX_FILE_SIZE_MB", "5")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendVertex, cfg.Backend)
	assert.Equal(t, "us-central1", cfg.VertexAIRegion)
	assert.Equal(t, int64(5<<20), cfg.MaxFileSizeBytes)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "ত্রুটি: PDF পড়তে সমস্যা: bad xref",
		userMessage(&ExtractionError{Mode: models.ModeText, Err: errString("bad xref")}))
	assert.Equal(t, "ত্রুটি: OCR ত্রুটি: no traineddata",
		userMessage(&ExtractionError{Mode: models.ModeOCR, Page: 3, Err: errString("no traineddata")}))
	assert.Equal(t, "দয়া করে প্রথমে একটি PDF ফাইল সিলেক্ট করুন।", userMessage(ErrNoDocument))
	assert.Equal(t, "ত্রুটি: অনুবাদ করতে সমস্যা হয়েছে", userMessage(errString("other")))
}

type errString string

func (e errString) Error() string { return string(e) }
