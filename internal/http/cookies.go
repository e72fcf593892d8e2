package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
)

// Cookie names owned by the gateway.
const (
	// SessionCookie carries the opaque server-side session identifier.
	SessionCookie = "session_id"
	// LogoutMarkerCookie is the short-lived boolean flag set at logout
	// time. While present, the pipeline distrusts any session the store
	// still returns. Readers never clear it; it expires on its own.
	LogoutMarkerCookie = "logged_out"
	// ProfileCacheCookie holds client-readable cached profile data the
	// web app sets to skip a fetch on first paint.
	ProfileCacheCookie = "profile_cache"
	// OAuthStateCookie and OAuthNonceCookie are the temporary login
	// handshake cookies.
	OAuthStateCookie = "oauth_state"
	OAuthNonceCookie = "oauth_nonce"
	// PostLoginRedirectCookie remembers where the user was headed.
	PostLoginRedirectCookie = "post_login_redirect"
)

// AuthCookies is the exhaustive set cleared on session invalidation
// and exchange-failure recovery. Cleanup iterates this list so a new
// auth cookie cannot be forgotten by one of the clearing paths.
var AuthCookies = []string{
	SessionCookie,
	ProfileCacheCookie,
	OAuthStateCookie,
	OAuthNonceCookie,
	PostLoginRedirectCookie,
}

// CookieWriter clears and sets the gateway's cookies with consistent
// attributes (Path, Domain, Secure, SameSite) so deletions match the
// cookies they target across browsers.
type CookieWriter struct {
	Domain string
}

func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// Clear expires a single cookie on the client.
func (c CookieWriter) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires every cookie in AuthCookies.
func (c CookieWriter) ClearAuthCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range AuthCookies {
		c.Clear(w, r, name)
	}
}

// SetSessionCookie writes the session cookie based on the session's expiry.
func (c CookieWriter) SetSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.ID,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// SetLogoutMarker writes the logout marker cookie. It is deliberately
// not HttpOnly-sensitive data: the value is just "true".
func (c CookieWriter) SetLogoutMarker(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     LogoutMarkerCookie,
		Value:    "true",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(domainauth.DefaultLogoutMarkerTTL.Seconds()),
	})
}

// SessionIDFromRequest returns the session identifier carried by the
// request, or "" for an anonymous request.
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// HasLogoutMarker reports whether the request carries a truthy logout
// marker cookie.
func HasLogoutMarker(r *http.Request) bool {
	cookie, err := r.Cookie(LogoutMarkerCookie)
	if err != nil {
		return false
	}
	v := strings.ToLower(cookie.Value)
	return v == "true" || v == "1"
}
