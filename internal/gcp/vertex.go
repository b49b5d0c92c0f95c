package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultVertexModel is the Vertex AI model used when none is configured.
const DefaultVertexModel = "gemini-2.0-flash"

// TranslatorSystemPrompt frames the model for page-by-page translation.
const TranslatorSystemPrompt = "You are a translator of classical and modern Arabic religious texts into Bangla. Accuracy and faithfulness to the source are of utmost importance."

// VertexClient holds the pre-configured translator model.
type VertexClient struct {
	TranslatorModel *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a client using Application Default Credentials.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultVertexModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	translatorModel := baseClient.GenerativeModel(modelName)
	translatorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranslatorSystemPrompt)},
	}
	translatorModel.SetTemperature(TranslatorGenerationConfig.Temperature)
	translatorModel.SetTopK(TranslatorGenerationConfig.TopK)
	translatorModel.SetTopP(TranslatorGenerationConfig.TopP)
	translatorModel.SetMaxOutputTokens(TranslatorGenerationConfig.MaxOutputTokens)

	return &VertexClient{
		TranslatorModel: translatorModel,
		baseClient:      baseClient,
	}, nil
}

// GenerateText sends prompt to the translator model and returns the concatenated
// text parts of the first candidate.
func (c *VertexClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.TranslatorModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformedResponse
	}

	var text strings.Builder
	var found int
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
			found++
		}
	}
	if found == 0 {
		return "", ErrMalformedResponse
	}
	return text.String(), nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
