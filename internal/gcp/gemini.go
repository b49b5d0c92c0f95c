package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultGeminiBaseURL is the Generative Language API root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel is the model used for page translation.
	DefaultGeminiModel = "gemini-2.0-flash"

	defaultGeminiTimeout = 2 * time.Minute
	maxErrorBody         = 64 << 10
)

var (
	// ErrNoAPIKey is returned when a request is attempted without a credential.
	ErrNoAPIKey = errors.New("gemini: no API key configured")
	// ErrMalformedResponse is returned when a successful reply has no candidate text.
	ErrMalformedResponse = errors.New("gemini: response did not contain candidate text")
)

// APIError is a non-success reply from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiClient calls generateContent over REST with an API key.
type GeminiClient struct {
	baseURL    string
	model      string
	config     GenerationConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClient) {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Host == "" {
			return
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithModel sets the model name.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = client
	}
}

// WithGenerationConfig overrides TranslatorGenerationConfig.
func WithGenerationConfig(cfg GenerationConfig) GeminiOption {
	return func(c *GeminiClient) {
		c.config = cfg
	}
}

// WithRequestsPerMinute throttles outgoing requests. Zero disables the limiter.
func WithRequestsPerMinute(rpm int) GeminiOption {
	return func(c *GeminiClient) {
		if rpm <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// NewGeminiClient returns a client for the default endpoint and model.
func NewGeminiClient(opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		baseURL:    DefaultGeminiBaseURL,
		model:      DefaultGeminiModel,
		config:     TranslatorGenerationConfig,
		httpClient: &http.Client{Timeout: defaultGeminiTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateText sends a single-turn prompt and returns the first candidate's first part.
func (c *GeminiClient) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrNoAPIKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("gemini: rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(generateContentRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: c.config,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?%s",
		c.baseURL, url.PathEscape(c.model), url.Values{"key": {apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", redactKey(err, apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var out generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Candidates) == 0 || out.Candidates[0].Content == nil || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformedResponse
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("API Error: %d", resp.StatusCode),
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var payload geminiErrorResponse
	if json.Unmarshal(raw, &payload) == nil && payload.Error != nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, apiKey string) error {
	msg := err.Error()
	if !strings.Contains(msg, apiKey) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, apiKey, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
