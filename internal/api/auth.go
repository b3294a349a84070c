package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/auth"
	"github.com/lingonote/lingonote/internal/db"
)

// SessionResponse is the body of GET /api/auth/session.
type SessionResponse struct {
	Status  string     `json:"status"`
	User    *db.User   `json:"user,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
}

// SignInResponse is returned by the OAuth callback.
type SignInResponse struct {
	Token   string    `json:"token"`
	User    *db.User  `json:"user"`
	Expires time.Time `json:"expires"`
}

// SignIn handles GET /api/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		h.Logger.WithError(err).Error("Failed to start sign-in")
		respondError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Auth.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /api/auth/callback.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		respondError(w, http.StatusUnauthorized, "Sign-in was denied: "+e)
		return
	}

	c, err := r.Cookie(auth.StateCookieName)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		respondError(w, http.StatusBadRequest, auth.ErrInvalidState.Error())
		return
	}
	h.clearCookie(w, auth.StateCookieName, "/api/auth")

	sess, user, err := h.Auth.Complete(r.Context(), q.Get("code"))
	if err != nil {
		h.Logger.WithError(err).Warn("Sign-in failed")
		respondError(w, http.StatusUnauthorized, "Sign-in failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.Expires,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, SignInResponse{Token: sess.Token, User: user, Expires: sess.Expires})
}

// SignOut handles POST /api/auth/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.Logger.WithError(err).Error("Failed to sign out")
		respondError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	h.clearCookie(w, auth.CookieName, "/")
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Signed out"})
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusOK, SessionResponse{Status: "unauthenticated"})
		return
	}

	user, err := h.Auth.User(r.Context(), sess.UserID)
	if errors.Is(err, db.ErrNotFound) {
		respondJSON(w, http.StatusOK, SessionResponse{Status: "unauthenticated"})
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", sess.UserID).Error("Failed to load session user")
		respondError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	expires := sess.Expires
	respondJSON(w, http.StatusOK, SessionResponse{Status: "authenticated", User: user, Expires: &expires})
}

// SessionMiddleware resolves the request's session token. Invalid or expired
// tokens leave the request anonymous.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" || h.Auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := h.Auth.Resolve(r.Context(), token)
		if err != nil {
			h.Logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).WithError(err).Error("Failed to resolve session")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if sess != nil {
			r = r.WithContext(auth.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
