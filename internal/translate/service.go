package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Request is a translation request as received at the API boundary.
type Request struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
}

// Validate checks that the request carries text.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

// Result is the outcome of a translation.
type Result struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage string `json:"detectedLanguage"`
}

// Service is the translation facade used by the API. It detects the source
// language when none is given and then makes exactly one translate call.
type Service struct {
	engine Engine
	logger *logrus.Logger
}

// NewService creates a Service backed by engine.
func NewService(engine Engine, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		engine: engine,
		logger: logger,
	}
}

// EngineName returns the name of the underlying engine.
func (s *Service) EngineName() string {
	return s.engine.Name()
}

// Translate translates req.Text. A missing target defaults to English. When
// no source is given the language is detected first; a failed or empty
// detection is reported as AutoLanguage and does not fail the request.
func (s *Service) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target := NormalizeCode(req.TargetLanguage)
	if target == "" {
		target = DefaultTargetLanguage
	}

	detected := NormalizeCode(req.SourceLanguage)
	if detected == "" {
		lang, err := s.detect(ctx, req.Text)
		switch {
		case err != nil:
			s.logger.WithError(err).WithField("engine", s.engine.Name()).Warn("Language detection failed, continuing with auto")
			RecordDetectionFallback(s.engine.Name())
			detected = AutoLanguage
		case strings.TrimSpace(lang) == "":
			RecordDetectionFallback(s.engine.Name())
			detected = AutoLanguage
		default:
			detected = strings.TrimSpace(lang)
		}
	}

	RecordRequestSize(s.engine.Name(), len(req.Text))

	start := time.Now()
	translated, err := s.engine.Translate(ctx, req.Text, NormalizeCode(detected), target)
	RecordRequest(s.engine.Name(), "translate", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to translate text: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"engine":      s.engine.Name(),
		"source_lang": detected,
		"target_lang": target,
		"text_length": len(req.Text),
	}).Debug("Translation completed")

	return &Result{
		TranslatedText:   translated,
		DetectedLanguage: detected,
	}, nil
}

// DetectLanguage detects the language of text. Errors propagate.
func (s *Service) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	lang, err := s.detect(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}
	return strings.TrimSpace(lang), nil
}

func (s *Service) detect(ctx context.Context, text string) (string, error) {
	start := time.Now()
	lang, err := s.engine.DetectLanguage(ctx, text)
	RecordRequest(s.engine.Name(), "detect", err, time.Since(start))
	return lang, err
}
