package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// CallbackParam carries the original destination through login and
// cookie-clearing redirects.
const CallbackParam = "callbackUrl"

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// safeRedirectPath ensures the provided redirect is a same-origin
// relative path starting with "/" and not an absolute URL. Returns "/"
// when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// callbackFromRequest returns the original destination to carry as the
// callback parameter: the request's path plus query string.
func callbackFromRequest(r *http.Request) string {
	return safeRedirectPath(r.URL.RequestURI())
}

// buildRedirectURL appends query params to a relative target path.
func buildRedirectURL(path string, params url.Values) string {
	u := url.URL{Path: path}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// loginRedirectURL builds the login redirect carrying the original
// destination so the user lands back where they were.
func loginRedirectURL(loginPath, callback string) string {
	params := url.Values{}
	if callback != "" && callback != "/" {
		params.Set(CallbackParam, callback)
	}
	return buildRedirectURL(loginPath, params)
}
