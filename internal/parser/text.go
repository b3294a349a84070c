package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func extractText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", fmt.Errorf("%w in text file", ErrNoText)
	}
	return text, nil
}
