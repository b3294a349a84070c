package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLibreTranslateURL is the default base URL for LibreTranslate API.
	DefaultLibreTranslateURL = "http://localhost:5000"
	// DefaultLibreTranslateTimeout bounds a single HTTP request.
	DefaultLibreTranslateTimeout = 2 * time.Minute
)

// LibreTranslateEngine implements Engine using a self-hosted LibreTranslate server.
type LibreTranslateEngine struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewLibreTranslateEngine creates a new LibreTranslate client.
func NewLibreTranslateEngine(baseURL string, logger *logrus.Logger) *LibreTranslateEngine {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &LibreTranslateEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultLibreTranslateTimeout,
		},
		logger: logger,
	}
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreDetectRequest struct {
	Q string `json:"q"`
}

type libreDetection struct {
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// Name returns "libretranslate".
func (c *LibreTranslateEngine) Name() string {
	return string(EngineLibreTranslate)
}

// Translate translates text from sourceLang to targetLang. An unknown source
// is sent as "auto", which LibreTranslate resolves itself.
func (c *LibreTranslateEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if !hasSource(sourceLang) {
		sourceLang = AutoLanguage
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with LibreTranslate")

	var out libreTranslateResponse
	err := c.post(ctx, "/translate", libreTranslateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	}, &out)
	if err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

// DetectLanguage returns the most confident language reported by /detect.
func (c *LibreTranslateEngine) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	var detections []libreDetection
	if err := c.post(ctx, "/detect", libreDetectRequest{Q: text}, &detections); err != nil {
		return "", err
	}

	best := libreDetection{Confidence: -1}
	for _, d := range detections {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best.Language, nil
}

func (c *LibreTranslateEngine) post(ctx context.Context, path string, payload, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Error("LibreTranslate request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"path":        path,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("LibreTranslate request completed")

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &EngineError{
			Engine:      c.Name(),
			Message:     fmt.Sprintf("unexpected status from %s", path),
			StatusCode:  resp.StatusCode,
			RawResponse: string(bodyBytes),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
