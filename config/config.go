package config

import (
	"os"
	"strings"
)

// AppConfig is the main gateway configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: identity provider and onboarding configuration
//   - routes.go: route classification sets and well-known paths
//   - http.go: HTTP server, upstream, and cookie configuration
//   - database.go: Redis session store configuration
//   - observability.go: metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (relaxed cookies, text logs).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Identity provider configuration
	Identity IdentityConfig `envPrefix:"IDP_"`

	// Route classification configuration
	Routes RoutesConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Session store configuration
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Identity.Sanitize()
	c.Routes.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
