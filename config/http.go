package config

import (
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server and upstream configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// UpstreamURL is the web application the gateway proxies to.
	UpstreamURL string `env:"UPSTREAM_URL" envDefault:"http://localhost:3000"`

	// CookieDomain is the domain for the gateway's cookies.
	// Leave empty to scope cookies to the request host.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// ShutdownTimeout bounds the drain period on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.UpstreamURL = strings.TrimSpace(h.UpstreamURL)
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}

	// A cookie domain equal to a public suffix (e.g. "com", "co.uk")
	// would be rejected by browsers and silently break sessions across
	// the fleet; drop it and fall back to host-scoped cookies.
	h.CookieDomain = strings.TrimPrefix(strings.TrimSpace(h.CookieDomain), ".")
	if h.CookieDomain != "" {
		if suffix, _ := publicsuffix.PublicSuffix(h.CookieDomain); suffix == h.CookieDomain {
			h.CookieDomain = ""
		}
	}
}
