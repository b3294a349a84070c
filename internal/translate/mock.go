package translate

import (
	"context"
	"hash/fnv"
	"strings"
)

// mockLanguages are the labels the mock detector chooses from.
var mockLanguages = []string{
	"English",
	"Spanish",
	"French",
	"German",
	"Japanese",
	"Chinese",
	"Russian",
	"Arabic",
}

// MockEngine is an offline engine for development and tests. It "translates"
// by reversing the text and detects a label chosen from a fixed list.
type MockEngine struct{}

// NewMockEngine creates a MockEngine.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Name returns "mock".
func (m *MockEngine) Name() string {
	return string(EngineMock)
}

// Translate reverses text rune by rune.
func (m *MockEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	runes := []rune(text)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

// DetectLanguage picks a label from mockLanguages. The same text always
// yields the same label.
func (m *MockEngine) DetectLanguage(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	return mockLanguages[h.Sum32()%uint32(len(mockLanguages))], nil
}
