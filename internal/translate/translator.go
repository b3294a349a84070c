package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/lingonote/lingonote/internal/record"
)

// AutoLanguage marks an unknown source language.
const AutoLanguage = "auto"

// DefaultTargetLanguage is used when a request names no target.
const DefaultTargetLanguage = "en"

// ErrEmptyText is returned for translation or detection requests without text.
var ErrEmptyText = &record.ValidationError{Field: "text", Message: "Text is required"}

// Translator translates text between languages.
type Translator interface {
	// Translate translates text into targetLang. sourceLang may be empty or
	// AutoLanguage when unknown.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// Name identifies the engine in logs and metrics.
	Name() string
}

// Detector identifies the language of a text.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Engine is a translation backend that can also detect languages.
type Engine interface {
	Translator
	Detector
}

// EngineError represents an error returned by a translation backend
type EngineError struct {
	Engine      string
	Message     string
	StatusCode  int
	RequestID   string
	RawResponse string
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s engine error (%d): %s", e.Engine, e.StatusCode, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf("\n  request-id: %s", e.RequestID)
	}
	if e.RawResponse != "" {
		msg += fmt.Sprintf("\n  raw: %s", e.RawResponse)
	}
	return msg
}

// IsEngineError checks if an error is an EngineError
func IsEngineError(err error) bool {
	var engErr *EngineError
	return errors.As(err, &engErr)
}

// NormalizeCode reduces a BCP 47 tag to its base language ("fr-CA" -> "fr",
// "EN" -> "en"). Values that are not language tags, such as "Spanish" or
// "auto", are returned trimmed but otherwise unchanged.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, AutoLanguage) {
		return code
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return code
	}
	return base.String()
}

// hasSource reports whether sourceLang names a concrete language.
func hasSource(sourceLang string) bool {
	return sourceLang != "" && !strings.EqualFold(sourceLang, AutoLanguage)
}
