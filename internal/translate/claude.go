package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeEngine implements Engine using the Claude Messages API
type ClaudeEngine struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewClaudeEngine creates a new Claude engine. An empty model selects the
// default Sonnet model.
func NewClaudeEngine(apiKey, model string, opts ...option.RequestOption) (*ClaudeEngine, error) {
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := anthropic.NewClient(opts...)

	m := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		m = anthropic.Model(model)
	}

	return &ClaudeEngine{
		client: &client,
		model:  m,
	}, nil
}

// Name returns "claude".
func (c *ClaudeEngine) Name() string {
	return string(EngineClaude)
}

// Translate asks Claude for a translation of text into targetLang
func (c *ClaudeEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	out, err := c.complete(ctx, buildTranslatePrompt(text, sourceLang, targetLang), 4000)
	if err != nil {
		return "", err
	}
	return cleanResponse(out), nil
}

// DetectLanguage asks Claude for the language code of text
func (c *ClaudeEngine) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	out, err := c.complete(ctx, buildDetectPrompt(text), 20)
	if err != nil {
		return "", err
	}
	return cleanResponse(out), nil
}

// complete sends a single user message and concatenates the text blocks of the reply.
func (c *ClaudeEngine) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &EngineError{
				Engine:      c.Name(),
				Message:     apiErr.Error(),
				StatusCode:  apiErr.StatusCode,
				RequestID:   apiErr.RequestID,
				RawResponse: apiErr.RawJSON(),
			}
		}
		return "", &EngineError{
			Engine:     c.Name(),
			Message:    fmt.Sprintf("failed to call Claude API: %v", err),
			StatusCode: 500,
		}
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String(), nil
}

// validateAPIKey checks if the API key is valid
func validateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	return nil
}
