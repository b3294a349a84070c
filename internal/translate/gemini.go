package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiEngine implements Engine using Google's Gemini API.
type GeminiEngine struct {
	client *genai.Client
	model  string
}

// NewGeminiEngine creates a new Gemini engine.
func NewGeminiEngine(ctx context.Context, apiKey, model string) (*GeminiEngine, error) {
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiEngine{
		client: client,
		model:  model,
	}, nil
}

// Name returns "gemini".
func (g *GeminiEngine) Name() string {
	return string(EngineGemini)
}

// Translate asks Gemini for a translation of text into targetLang.
func (g *GeminiEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	out, err := g.generate(ctx, buildTranslatePrompt(text, sourceLang, targetLang))
	if err != nil {
		return "", err
	}
	return cleanResponse(out), nil
}

// DetectLanguage asks Gemini for the language code of text.
func (g *GeminiEngine) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	out, err := g.generate(ctx, buildDetectPrompt(text))
	if err != nil {
		return "", err
	}
	return cleanResponse(out), nil
}

func (g *GeminiEngine) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &EngineError{
			Engine:     g.Name(),
			Message:    fmt.Sprintf("failed to call Gemini API: %v", err),
			StatusCode: 502,
		}
	}
	return resp.Text(), nil
}
