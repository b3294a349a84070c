// Package remote is the HTTP client for the lingonote REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/record"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 60 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// SessionUser is the signed-in user as reported by the server.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// SessionInfo is the body of GET /api/auth/session.
type SessionInfo struct {
	Status  string       `json:"status"`
	User    *SessionUser `json:"user,omitempty"`
	Expires time.Time    `json:"expires,omitempty"`
}

// TranslateResult is the body of POST /api/google-translate.
type TranslateResult struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage string `json:"detectedLanguage"`
	OriginalText     string `json:"originalText,omitempty"`
}

// Client talks to a lingonote server. A non-empty token is sent as a bearer
// credential.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL, token string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	return c.token
}

// ListTranslations returns the caller's translation history, newest first.
func (c *Client) ListTranslations(ctx context.Context) ([]record.Translation, error) {
	var out []record.Translation
	if err := c.do(ctx, http.MethodGet, "/api/translations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTranslation stores a translation and returns it with its server id.
func (c *Client) CreateTranslation(ctx context.Context, in record.TranslationInput) (*record.Translation, error) {
	var out record.Translation
	if err := c.do(ctx, http.MethodPost, "/api/translations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTranslation deletes one translation by server id.
func (c *Client) DeleteTranslation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/translations?id="+url.QueryEscape(id), nil, nil)
}

// ClearTranslations deletes the caller's whole history and returns how many
// records were removed.
func (c *Client) ClearTranslations(ctx context.Context) (int64, error) {
	var out struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/translations?clearAll=true", nil, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

// ListVocabulary returns the caller's vocabulary notes, newest first.
func (c *Client) ListVocabulary(ctx context.Context) ([]record.Vocabulary, error) {
	var out []record.Vocabulary
	if err := c.do(ctx, http.MethodGet, "/api/vocabulary", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVocabulary stores a vocabulary note and returns it with its server id.
func (c *Client) CreateVocabulary(ctx context.Context, in record.VocabularyInput) (*record.Vocabulary, error) {
	var out record.Vocabulary
	if err := c.do(ctx, http.MethodPost, "/api/vocabulary", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVocabulary deletes one vocabulary note by server id.
func (c *Client) DeleteVocabulary(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/vocabulary?id="+url.QueryEscape(id), nil, nil)
}

// Translate translates text. Empty languages are left to the server defaults.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (*TranslateResult, error) {
	body := map[string]string{"text": text}
	if targetLang != "" {
		body["targetLanguage"] = targetLang
	}
	if sourceLang != "" {
		body["sourceLanguage"] = sourceLang
	}

	var out TranslateResult
	if err := c.do(ctx, http.MethodPost, "/api/google-translate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectLanguage returns the language the server detects for text.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	var out struct {
		DetectedLanguage string `json:"detectedLanguage"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/detect-language", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	return out.DetectedLanguage, nil
}

// TranslateDocument uploads a document for translation.
func (c *Client) TranslateDocument(ctx context.Context, filename string, content io.Reader, targetLang string) (*TranslateResult, error) {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	if targetLang != "" {
		if err := mw.WriteField("targetLanguage", targetLang); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/translate-document", buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out TranslateResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session reports the server's view of the current credentials.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut ends the current session on the server.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
}

// SignInURL is the browser URL that starts the OAuth flow.
func (c *Client) SignInURL() string {
	return c.baseURL + "/api/auth/signin"
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = buf
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).Debug("API request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":      req.Method,
		"path":        req.URL.Path,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("API request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
