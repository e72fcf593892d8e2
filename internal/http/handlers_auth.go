package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
)

// SessionManager is the slice of the session service the auth
// handlers need.
type SessionManager interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for the gateway's own auth
// endpoints: the logout endpoint invalidation redirects to, the
// cookie-clearing endpoint exchange recovery redirects to, and a
// session status probe for the client app.
type AuthHandlers struct {
	Sessions  SessionManager
	Cookies   CookieWriter
	Cache     CacheClearer
	LoginPath string
	Logger    *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) loginPath() string {
	if h.LoginPath != "" {
		return h.LoginPath
	}
	return "/login"
}

// Logout destroys the server-side session, clears every auth cookie,
// and sets the logout marker so requests racing the logout are handled
// consistently until the marker expires. The user lands on the login
// page with a callback to where they were.
// GET|POST /auth/logout?callbackUrl=<path>.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := SessionIDFromRequest(r); sessionID != "" {
		if err := h.Sessions.Logout(r.Context(), sessionID); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	if h.Cache != nil {
		h.Cache.Clear()
	}

	h.Cookies.ClearAuthCookies(w, r)
	h.Cookies.SetLogoutMarker(w, r)

	callback := r.FormValue(CallbackParam)
	if callback == "" {
		callback = r.URL.Query().Get(CallbackParam)
	}
	target := loginRedirectURL(h.loginPath(), safeRedirectPath(callback))
	http.Redirect(w, r, target, http.StatusFound)
}

// ClearSession expires every auth cookie without touching the
// server-side store. It is the recovery target for failed
// authorization-code exchanges, where the poisoned cookies themselves
// are the problem. Callback and error indicator pass through to login.
// GET /auth/clear-session?callbackUrl=<path>&error=<code>.
func (h *AuthHandlers) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearAuthCookies(w, r)

	params := url.Values{}
	callback := safeRedirectPath(r.URL.Query().Get(CallbackParam))
	if callback != "/" {
		params.Set(CallbackParam, callback)
	}
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		params.Set("error", errCode)
	}
	http.Redirect(w, r, buildRedirectURL(h.loginPath(), params), http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	anonymous := map[string]any{"authenticated": false}

	sessionID := SessionIDFromRequest(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, anonymous)
		return
	}

	sess, err := h.Sessions.GetSession(r.Context(), sessionID)
	if err != nil || sess == nil || sess.HasRefreshError() {
		// Invalid or unreadable session: drop the cookie so the client
		// stops presenting it.
		h.Cookies.Clear(w, r, SessionCookie)
		WriteJSON(w, http.StatusOK, anonymous)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    sess.UserID,
			"email": sess.Email,
			"role":  sess.Role,
		},
		"expires_at": sess.ExpiresAt,
	})
}
