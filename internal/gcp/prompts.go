package gcp

import "fmt"

// TranslatorPromptTemplate is the instruction sent with every page. %s is the
// Arabic source text.
const TranslatorPromptTemplate = `Translate this Arabic Islamic text to natural Bangla accurately. Preserve religious meaning and Islamic terminology. Keep the translation concise and natural. Only return the translated text, no additional comments.

Arabic Text: %s`

// TestPhrase is the canned input used to validate a credential.
const TestPhrase = "سلام"

// GenerationConfig mirrors the generationConfig object of a generateContent call.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int32   `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int32   `json:"maxOutputTokens"`
}

// TranslatorGenerationConfig keeps randomness low and bounds the output length.
var TranslatorGenerationConfig = GenerationConfig{
	Temperature:     0.3,
	TopK:            40,
	TopP:            0.8,
	MaxOutputTokens: 2000,
}

// TranslatorPrompt renders the instruction prompt for text.
func TranslatorPrompt(text string) string {
	return fmt.Sprintf(TranslatorPromptTemplate, text)
}
