package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/gcp"
	"github.com/Lllllllleong/arabicpdftranslator/internal/pdf"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	StoreFile      = "file"
	StoreFirestore = "firestore"
)

// Config holds all configuration for the translator service.
type Config struct {
	APIKey           string
	GeminiBaseURL    string
	GeminiModel      string
	GeminiMaxRPM     int
	Backend          string
	ProjectID        string
	VertexAIRegion   string
	VertexModel      string
	StoreBackend     string
	StorePath        string
	StoreCollection  string
	ArtifactBucket   string
	MaxFileSizeBytes int64
	MaxTextPages     int
	MaxOCRPages      int
	OCRLanguage      string
	OCRGrayscale     bool
	RenderDPI        int
	PdftoppmPath     string
	TTSCommand       string
	TextPageDelay    time.Duration
	OCRPageDelay     time.Duration
}

// loadConfig loads and validates all environment variables for this service.
func loadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:          gcp.GetEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:   gcp.GetEnv("GEMINI_API_URL", gcp.DefaultGeminiBaseURL),
		GeminiModel:     gcp.GetEnv("GEMINI_MODEL", gcp.DefaultGeminiModel),
		Backend:         gcp.GetEnv("TRANSLATION_BACKEND", BackendGemini),
		ProjectID:       gcp.GetEnv("PROJECT_ID", ""),
		VertexAIRegion:  gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		VertexModel:     gcp.GetEnv("VERTEX_MODEL", gcp.DefaultVertexModel),
		StoreBackend:    gcp.GetEnv("STORE_BACKEND", StoreFile),
		StorePath:       gcp.GetEnv("STORE_PATH", "data/store.json"),
		StoreCollection: gcp.GetEnv("FIRESTORE_COLLECTION", "settings"),
		ArtifactBucket:  gcp.GetEnv("ARTIFACT_BUCKET", ""),
		OCRLanguage:     gcp.GetEnv("OCR_LANGUAGE", pdf.DefaultOCRLanguage),
		PdftoppmPath:    gcp.GetEnv("PDFTOPPM_PATH", "pdftoppm"),
		TTSCommand:      gcp.GetEnv("TTS_COMMAND", "espeak-ng"),
		TextPageDelay:   DefaultTextPageDelay,
		OCRPageDelay:    DefaultOCRPageDelay,
	}

	var err error
	if cfg.GeminiMaxRPM, err = envInt("GEMINI_MAX_RPM", 15); err != nil {
		return nil, err
	}
	maxMB, err := envInt("MAX_FILE_SIZE_MB", 20)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSizeBytes = int64(maxMB) << 20
	if cfg.MaxTextPages, err = envInt("MAX_TEXT_PAGES", pdf.DefaultMaxTextPages); err != nil {
		return nil, err
	}
	if cfg.MaxOCRPages, err = envInt("MAX_OCR_PAGES", pdf.DefaultMaxOCRPages); err != nil {
		return nil, err
	}
	if cfg.RenderDPI, err = envInt("RENDER_DPI", pdf.DefaultDPI); err != nil {
		return nil, err
	}
	if cfg.OCRGrayscale, err = strconv.ParseBool(gcp.GetEnv("OCR_GRAYSCALE", "false")); err != nil {
		return nil, fmt.Errorf("OCR_GRAYSCALE must be a boolean: %w", err)
	}

	switch cfg.Backend {
	case BackendGemini:
	case BackendVertex:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("PROJECT_ID environment variable must be set for the vertex backend")
		}
	default:
		return nil, fmt.Errorf("TRANSLATION_BACKEND must be %q or %q, got %q", BackendGemini, BackendVertex, cfg.Backend)
	}

	switch cfg.StoreBackend {
	case StoreFile:
	case StoreFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("PROJECT_ID environment variable must be set for the firestore store")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreFile, StoreFirestore, cfg.StoreBackend)
	}

	if cfg.MaxFileSizeBytes <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}
	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
