package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineMock reverses text offline.
	EngineMock EngineType = "mock"
	// EngineClaude uses the Anthropic Messages API.
	EngineClaude EngineType = "claude"
	// EngineGemini uses the Gemini API.
	EngineGemini EngineType = "gemini"
	// EngineLibreTranslate uses a LibreTranslate server.
	EngineLibreTranslate EngineType = "libretranslate"
)

// Config holds configuration for creating an Engine.
type Config struct {
	Engine EngineType
	// APIKey is used by the claude and gemini engines.
	APIKey string
	// Model overrides the default model of LLM engines.
	Model string
	// BaseURL is the LibreTranslate server address.
	BaseURL string
	Logger  *logrus.Logger
}

// NewEngine creates an Engine based on the configuration.
func NewEngine(ctx context.Context, cfg Config) (Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine": cfg.Engine,
		"model":  cfg.Model,
	}).Info("Creating translation engine")

	switch cfg.Engine {
	case EngineMock, "":
		return NewMockEngine(), nil
	case EngineClaude:
		engine, err := NewClaudeEngine(cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create claude engine: %w", err)
		}
		return engine, nil
	case EngineGemini:
		engine, err := NewGeminiEngine(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini engine: %w", err)
		}
		return engine, nil
	case EngineLibreTranslate:
		return NewLibreTranslateEngine(cfg.BaseURL, cfg.Logger), nil
	default:
		cfg.Logger.WithField("engine", cfg.Engine).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
}

// ParseEngineType parses a string into an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mock":
		return EngineMock, nil
	case "claude", "anthropic":
		return EngineClaude, nil
	case "gemini", "google":
		return EngineGemini, nil
	case "libretranslate":
		return EngineLibreTranslate, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: mock, claude, gemini, libretranslate)", s)
	}
}
