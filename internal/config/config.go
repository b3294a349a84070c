package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lingonote/lingonote/internal/translate"
)

// Config holds the web server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	OAuth      OAuthConfig      `yaml:"oauth"`
	Translator TranslatorConfig `yaml:"translator"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the record store. URL is a MongoDB connection
// string or a SQLite path.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// OAuthConfig holds the Google OAuth client credentials.
type OAuthConfig struct {
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	RedirectURL   string `yaml:"redirect_url"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

// TranslatorConfig selects the translation engine.
type TranslatorConfig struct {
	Engine            string `yaml:"engine"` // mock, claude, gemini, libretranslate
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	Model             string `yaml:"model"`
	LibreTranslateURL string `yaml:"libretranslate_url"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: "8080",
		},
		OAuth: OAuthConfig{
			RedirectURL: "http://localhost:8080/api/auth/callback",
		},
		Translator: TranslatorConfig{
			Engine: "mock",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads an optional YAML file and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		cleanPath := filepath.Clean(path)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// applyEnv overrides cfg with any set environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Server.Port, "PORT")
	set(&cfg.Database.URL, "DATABASE_URL", "MONGODB_URI")
	set(&cfg.OAuth.ClientID, "GOOGLE_CLIENT_ID")
	set(&cfg.OAuth.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&cfg.OAuth.RedirectURL, "OAUTH_REDIRECT_URL")
	set(&cfg.Translator.Engine, "TRANSLATOR_ENGINE")
	set(&cfg.Translator.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&cfg.Translator.GeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_GENAI_API_KEY")
	set(&cfg.Translator.Model, "TRANSLATOR_MODEL")
	set(&cfg.Translator.LibreTranslateURL, "LIBRETRANSLATE_URL")
	set(&cfg.Logging.Level, "LOG_LEVEL")
	set(&cfg.Logging.Format, "LOG_FORMAT")

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("SESSION_COOKIE_SECURE"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OAuth.SecureCookies = b
		}
	}
}

// Validate reports missing settings that make the server unable to start.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) must be set"))
	}
	if c.OAuth.ClientID == "" {
		errs = append(errs, errors.New("oauth.client_id (GOOGLE_CLIENT_ID) must be set"))
	}
	if c.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("oauth.client_secret (GOOGLE_CLIENT_SECRET) must be set"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port must be set"))
	} else if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port %q is not a number", c.Server.Port))
	}

	engine, err := translate.ParseEngineType(c.Translator.Engine)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("translator.engine: %w", err))
	case engine == translate.EngineClaude && c.Translator.AnthropicAPIKey == "":
		errs = append(errs, errors.New("translator.anthropic_api_key (ANTHROPIC_API_KEY) must be set for the claude engine"))
	case engine == translate.EngineGemini && c.Translator.GeminiAPIKey == "":
		errs = append(errs, errors.New("translator.gemini_api_key (GEMINI_API_KEY) must be set for the gemini engine"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
