package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/arabicpdftranslator/internal/gcp"
	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/pdf"
	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
)

// Deps are the collaborators an App is assembled from.
type Deps struct {
	Config      *Config
	Store       store.Store
	Backend     TextBackend
	Extractor   DocumentOpener
	Synthesizer Synthesizer
	// Artifacts may be nil to disable export.
	Artifacts ArtifactSaver
}

// App wires settings, history, the run session, read-aloud and the reader.
type App struct {
	Config     *Config
	Settings   *Settings
	History    *History
	Translator *Translator
	Session    *Session
	Speaker    *Speaker
	Reader     *Reader

	closers []func() error
}

// NewApp loads configuration from the environment and creates all clients.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, closers, err := buildDeps(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := NewAppWithDeps(deps)
	app.closers = append(app.closers, closers...)
	slog.Info("Translator app initialized.", "backend", cfg.Backend, "store", cfg.StoreBackend, "ocrCompiled", pdf.TesseractAvailable)
	return app, nil
}

// NewAppWithDeps assembles an App from explicit dependencies.
func NewAppWithDeps(d Deps) *App {
	cfg := d.Config
	if cfg == nil {
		cfg = &Config{MaxFileSizeBytes: 20 << 20, TextPageDelay: DefaultTextPageDelay, OCRPageDelay: DefaultOCRPageDelay}
	}
	settings := NewSettings(d.Store, cfg.APIKey)
	history := NewHistory(d.Store)
	translator := NewTranslator(d.Backend, settings)
	runner := NewRunner(d.Extractor, translator, cfg.TextPageDelay, cfg.OCRPageDelay)
	speaker := NewSpeaker(d.Synthesizer)
	session := NewSession(runner, translator, history, d.Artifacts, cfg.MaxFileSizeBytes)

	return &App{
		Config:     cfg,
		Settings:   settings,
		History:    history,
		Translator: translator,
		Session:    session,
		Speaker:    speaker,
		Reader:     NewReader(session, speaker),
	}
}

// buildDeps creates the store, translation backend, extractor and artifact
// writer selected by cfg. The returned closers release them.
func buildDeps(ctx context.Context, cfg *Config) (Deps, []func() error, error) {
	var closers []func() error
	fail := func(err error) (Deps, []func() error, error) {
		for _, c := range closers {
			_ = c()
		}
		return Deps{}, nil, err
	}

	var st store.Store
	switch cfg.StoreBackend {
	case StoreFirestore:
		fs, err := store.NewFirestoreStore(ctx, cfg.ProjectID, cfg.StoreCollection)
		if err != nil {
			return fail(fmt.Errorf("failed to create firestore store: %w", err))
		}
		st = fs
	default:
		fs, err := store.OpenFileStore(cfg.StorePath)
		if err != nil {
			return fail(fmt.Errorf("failed to open store: %w", err))
		}
		st = fs
	}
	closers = append(closers, st.Close)

	var backend TextBackend
	switch cfg.Backend {
	case BackendVertex:
		vc, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.VertexModel)
		if err != nil {
			return fail(fmt.Errorf("failed to create vertex client: %w", err))
		}
		closers = append(closers, vc.Close)
		backend = NewVertexBackend(vc)
	default:
		backend = NewGeminiBackend(gcp.NewGeminiClient(
			gcp.WithBaseURL(cfg.GeminiBaseURL),
			gcp.WithModel(cfg.GeminiModel),
			gcp.WithRequestsPerMinute(cfg.GeminiMaxRPM),
		))
	}

	var artifacts ArtifactSaver
	if cfg.ArtifactBucket != "" {
		sc, err := storage.NewClient(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to create storage client: %w", err))
		}
		closers = append(closers, sc.Close)
		artifacts = gcp.NewArtifactWriter(sc, cfg.ArtifactBucket)
	}

	return Deps{
		Config:      cfg,
		Store:       st,
		Backend:     backend,
		Extractor:   newExtractor(cfg),
		Synthesizer: NewCommandSynthesizer(cfg.TTSCommand),
		Artifacts:   artifacts,
	}, closers, nil
}

func newExtractor(cfg *Config) *pdf.Extractor {
	e := pdf.NewExtractor()
	e.MaxTextPages = cfg.MaxTextPages
	e.MaxOCRPages = cfg.MaxOCRPages
	e.DPI = cfg.RenderDPI
	e.Language = cfg.OCRLanguage
	e.Grayscale = cfg.OCRGrayscale
	e.Rasterizer = pdf.NewPopplerRasterizer(cfg.PdftoppmPath)
	return e
}

// APIKeyStatus reports whether a key is configured without revealing it.
func (a *App) APIKeyStatus(ctx context.Context) (models.APIKeyResponse, error) {
	ok, err := a.Settings.HasAPIKey(ctx)
	if err != nil {
		return models.APIKeyResponse{}, err
	}
	resp := models.APIKeyResponse{Configured: ok}
	if ok {
		resp.Masked = MaskedAPIKey
		resp.Notice = &models.Notice{Kind: models.NoticeSuccess, Message: "✅ API টি লোড হয়েছে! আপনি এখন অনুবাদ করতে পারেন।"}
	}
	return resp, nil
}

// SaveAPIKey stores key. Submitting the mask keeps the current key.
func (a *App) SaveAPIKey(ctx context.Context, key string) (models.APIKeyResponse, error) {
	written, err := a.Settings.SetAPIKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrInvalidAPIKey) {
			return models.APIKeyResponse{Notice: &models.Notice{Kind: models.NoticeError, Message: userMessage(err)}}, err
		}
		return models.APIKeyResponse{}, err
	}
	resp, err := a.APIKeyStatus(ctx)
	if err != nil {
		return resp, err
	}
	if written {
		resp.Notice = &models.Notice{Kind: models.NoticeSuccess, Message: "✅ API টি সংরক্ষণ করা হয়েছে! আপনি এখন অনুবাদ করতে পারেন।"}
	}
	return resp, nil
}

// TestAPIKey saves key when one is given, then sends the canned test phrase.
// A failed test is reported in the notice, not as an error.
func (a *App) TestAPIKey(ctx context.Context, key string) (models.APIKeyResponse, error) {
	if key != "" && key != MaskedAPIKey {
		if _, err := a.Settings.SetAPIKey(ctx, key); err != nil {
			return models.APIKeyResponse{}, err
		}
	}
	err := a.Translator.Test(ctx, "")
	if errors.Is(err, ErrNoCredential) {
		return models.APIKeyResponse{Notice: &models.Notice{Kind: models.NoticeError, Message: "দয়া করে প্রথমে একটি API টি দিন।"}}, err
	}
	resp, statusErr := a.APIKeyStatus(ctx)
	if statusErr != nil {
		return resp, statusErr
	}
	if err != nil {
		slog.Warn("API key test failed.", "backend", a.Translator.Backend(), "error", err)
		resp.Notice = &models.Notice{Kind: models.NoticeError, Message: "❌ API টি ত্রুটি: " + err.Error()}
		return resp, nil
	}
	resp.Notice = &models.Notice{Kind: models.NoticeSuccess, Message: "✅ API টি সঠিক! আপনি এখন অনুবাদ করতে পারেন।"}
	return resp, nil
}

// SetVisibility stops speech when the client is hidden.
func (a *App) SetVisibility(hidden bool) models.SpeechResponse {
	if hidden {
		a.Speaker.Stop()
	}
	return a.Speaker.Status()
}

// ClearAll stops the run and speech, and empties the session.
func (a *App) ClearAll() *models.Notice {
	notice := a.Session.Clear()
	a.Speaker.Stop()
	a.Reader.Close()
	return notice
}

// Close stops background work and releases clients.
func (a *App) Close(ctx context.Context) error {
	a.Speaker.Stop()
	var errs []error
	if err := a.Session.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
