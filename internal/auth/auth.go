// Package auth implements Google sign-in with database-backed sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lingonote/lingonote/internal/db"
)

const (
	// CookieName holds the session token in browsers.
	CookieName = "lingonote_session"
	// StateCookieName holds the OAuth state between sign-in and callback.
	StateCookieName = "lingonote_oauth_state"
	// SessionTTL is the lifetime of a new session.
	SessionTTL = 30 * 24 * time.Hour
	// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// ErrInvalidState is returned when the OAuth callback state does not match.
var ErrInvalidState = errors.New("invalid oauth state")

// Config holds the OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// UserInfo is the subset of the OpenID userinfo response we use.
type UserInfo struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Manager signs users in and resolves session tokens.
type Manager struct {
	oauth       *oauth2.Config
	conn        *db.Connector
	logger      *logrus.Logger
	userInfoURL string
	now         func() time.Time
}

// NewManager creates a Manager for Google sign-in.
func NewManager(cfg Config, conn *db.Connector, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		conn:        conn,
		logger:      logger,
		userInfoURL: GoogleUserInfoURL,
		now:         time.Now,
	}
}

// NewState returns a random OAuth state value.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthCodeURL returns the provider URL the browser is sent to.
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Complete exchanges an authorization code, records the user and opens a
// new session.
func (m *Manager) Complete(ctx context.Context, code string) (*db.Session, *db.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, fmt.Errorf("authorization code is missing")
	}

	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	info, err := m.fetchUserInfo(ctx, m.oauth.Client(ctx, tok))
	if err != nil {
		return nil, nil, err
	}
	if info.Email == "" {
		return nil, nil, fmt.Errorf("provider returned no email")
	}

	store, err := m.conn.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	user, err := store.UpsertUser(ctx, &db.User{
		Name:  info.Name,
		Email: info.Email,
		Image: info.Picture,
	})
	if err != nil {
		return nil, nil, err
	}

	sess := &db.Session{
		Token:   uuid.NewString(),
		UserID:  user.ID,
		Expires: m.now().Add(SessionTTL).UTC(),
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		return nil, nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"expires": sess.Expires,
	}).Info("User signed in")

	return sess, user, nil
}

func (m *Manager) fetchUserInfo(ctx context.Context, client *http.Client) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}

// Resolve returns the live session for token. Unknown and expired tokens
// yield nil without error; only store failures are errors.
func (m *Manager) Resolve(ctx context.Context, token string) (*db.Session, error) {
	if token == "" {
		return nil, nil
	}

	store, err := m.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sess, err := store.GetSession(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sess.Expired(m.now()) {
		if err := store.DeleteSession(ctx, token); err != nil {
			m.logger.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, nil
	}
	return sess, nil
}

// User loads the account behind a session.
func (m *Manager) User(ctx context.Context, id string) (*db.User, error) {
	store, err := m.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store.GetUser(ctx, id)
}

// SignOut deletes the session behind token.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	store, err := m.conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return store.DeleteSession(ctx, token)
}

// TokenFromRequest returns the bearer token or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

type sessionKey struct{}

// WithSession stores sess on ctx.
func WithSession(ctx context.Context, sess *db.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored on ctx, if any.
func SessionFrom(ctx context.Context) (*db.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*db.Session)
	return sess, ok && sess != nil
}

// OwnerFrom returns the owner scope for the request: the session user, or
// the ownerless scope for anonymous requests.
func OwnerFrom(ctx context.Context) db.Owner {
	if sess, ok := SessionFrom(ctx); ok {
		return db.Owner{UserID: sess.UserID}
	}
	return db.Anonymous()
}
