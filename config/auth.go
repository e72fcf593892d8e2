package config

import (
	"fmt"
	"strings"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
)

// IdentityConfig contains identity-provider and session configuration.
// Endpoints (userinfo, token) are discovered from IssuerURL via OIDC
// discovery at startup.
type IdentityConfig struct {
	IssuerURL    string `env:"ISSUER_URL,required"`
	ClientID     string `env:"CLIENT_ID"           envDefault:"lessonloop-web"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// GatedRole is the role subject to the onboarding completeness gate.
	GatedRole domainauth.Role `env:"GATED_ROLE" envDefault:"tutor"`

	// RequiredFields are the JMESPath expressions that must yield a
	// non-empty value on the tutor record before onboarding counts as
	// done. Empty means the built-in default list.
	RequiredFields []string `env:"REQUIRED_FIELDS" envSeparator:";"`

	// ProfileBaseURL is the platform API serving profile and tutor records.
	ProfileBaseURL string `env:"PROFILE_BASE_URL,required"`
}

// roleFromText parses and validates a role name from configuration.
func roleFromText(text string) (domainauth.Role, error) {
	v := domainauth.Role(strings.ToLower(strings.TrimSpace(text)))
	switch v {
	case domainauth.RoleTutor, domainauth.RoleStudent, domainauth.RoleAdmin:
		return v, nil
	default:
		return "", fmt.Errorf("invalid role: %q (valid options: tutor, student, admin)", text)
	}
}

// Sanitize applies guardrails to identity configuration values.
func (c *IdentityConfig) Sanitize() {
	c.IssuerURL = strings.TrimRight(strings.TrimSpace(c.IssuerURL), "/")
	c.ProfileBaseURL = strings.TrimRight(strings.TrimSpace(c.ProfileBaseURL), "/")

	if role, err := roleFromText(string(c.GatedRole)); err == nil {
		c.GatedRole = role
	} else {
		c.GatedRole = domainauth.RoleTutor
	}

	fields := c.RequiredFields[:0]
	for _, f := range c.RequiredFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	c.RequiredFields = fields
}
