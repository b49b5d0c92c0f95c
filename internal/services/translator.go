package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/gcp"
)

const (
	// maxPromptRunes bounds the page text sent in a single prompt.
	maxPromptRunes = 3000
	// translationTimeout bounds one remote call; the run loop never aborts it early.
	translationTimeout = 2 * time.Minute
)

// TextBackend is a remote text generation endpoint.
type TextBackend interface {
	Name() string
	RequiresAPIKey() bool
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// CredentialSource returns the API key to use for the next request.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

type geminiBackend struct {
	client *gcp.GeminiClient
}

// NewGeminiBackend sends prompts to the Generative Language REST API.
func NewGeminiBackend(client *gcp.GeminiClient) TextBackend {
	return &geminiBackend{client: client}
}

func (b *geminiBackend) Name() string         { return BackendGemini }
func (b *geminiBackend) RequiresAPIKey() bool { return true }
func (b *geminiBackend) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	return b.client.GenerateText(ctx, apiKey, prompt)
}

type promptGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type vertexBackend struct {
	client promptGenerator
}

// NewVertexBackend sends prompts to Vertex AI using application default credentials.
func NewVertexBackend(client *gcp.VertexClient) TextBackend {
	return &vertexBackend{client: client}
}

func (b *vertexBackend) Name() string         { return BackendVertex }
func (b *vertexBackend) RequiresAPIKey() bool { return false }
func (b *vertexBackend) Generate(ctx context.Context, _, prompt string) (string, error) {
	return b.client.GenerateText(ctx, prompt)
}

// Translator turns Arabic page text into Bangla.
type Translator struct {
	backend TextBackend
	creds   CredentialSource
	timeout time.Duration
}

// NewTranslator creates a Translator for the given backend.
func NewTranslator(backend TextBackend, creds CredentialSource) *Translator {
	return &Translator{backend: backend, creds: creds, timeout: translationTimeout}
}

// Backend reports the backend name used for metrics and logs.
func (t *Translator) Backend() string { return t.backend.Name() }

// Ready reports ErrNoCredential when the backend needs a key and none is configured.
func (t *Translator) Ready(ctx context.Context) error {
	_, err := t.apiKey(ctx)
	return err
}

func (t *Translator) apiKey(ctx context.Context) (string, error) {
	if !t.backend.RequiresAPIKey() {
		return "", nil
	}
	key, err := t.creds.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return "", ErrNoCredential
	}
	return key, nil
}

// Translate checks ctx once, then issues one request that runs to completion
// even if ctx is cancelled while it is in flight.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := t.apiKey(ctx)
	if err != nil {
		return "", err
	}
	return t.generate(ctx, key, gcp.TranslatorPrompt(truncateRunes(text, maxPromptRunes)))
}

// Test sends the canned phrase with apiKey, or the configured key when apiKey is empty.
// The translation itself is discarded.
func (t *Translator) Test(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		var err error
		if apiKey, err = t.apiKey(ctx); err != nil {
			return err
		}
	}
	_, err := t.generate(ctx, apiKey, gcp.TranslatorPrompt(gcp.TestPhrase))
	return err
}

func (t *Translator) generate(ctx context.Context, apiKey, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	start := time.Now()
	out, err := t.backend.Generate(callCtx, apiKey, prompt)
	observeTranslation(t.backend.Name(), time.Since(start), err)
	if err != nil {
		if errors.Is(err, gcp.ErrNoAPIKey) {
			return "", ErrNoCredential
		}
		return "", err
	}

	out = cleanModelOutput(out)
	if isRefusal(out) {
		slog.Warn("Model response looks like a refusal.", "backend", t.backend.Name(), "response", out)
		return "", ErrRefusal
	}
	return out, nil
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

func isRefusal(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// cleanModelOutput removes a code fence the model sometimes wraps its answer in.
func cleanModelOutput(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
