package config

import "strings"

// RoutesConfig contains the route classification sets and the
// well-known paths the pipeline steers around. The defaults mirror the
// LessonLoop web app's page layout; deployments override per env.
type RoutesConfig struct {
	// Public routes need no session at all.
	Public []string `env:"ROUTES_PUBLIC"    envDefault:"/;/login;/signup;/about;/404" envSeparator:";"`
	// Protected routes need a locally valid token.
	Protected []string `env:"ROUTES_PROTECTED" envDefault:"/dashboard;/bookings;/profile;/settings" envSeparator:";"`
	// Critical routes additionally re-check the account with the
	// identity provider.
	Critical []string `env:"ROUTES_CRITICAL"  envDefault:"/messages;/payments;/admin" envSeparator:";"`

	// LoginPath is where unauthenticated users are sent.
	LoginPath string `env:"ROUTES_LOGIN_PATH" envDefault:"/login"`
	// PostLoginPath is where authenticated users land by default.
	PostLoginPath string `env:"ROUTES_POST_LOGIN_PATH" envDefault:"/dashboard"`
	// OnboardingFirstStep is the redirect target for an incomplete
	// tutor record.
	OnboardingFirstStep string `env:"ROUTES_ONBOARDING_FIRST_STEP" envDefault:"/onboarding/profile"`
}

// Sanitize applies guardrails to route configuration values.
func (c *RoutesConfig) Sanitize() {
	c.Public = trimEntries(c.Public)
	c.Protected = trimEntries(c.Protected)
	c.Critical = trimEntries(c.Critical)

	c.LoginPath = ensureLeadingSlash(c.LoginPath, "/login")
	c.PostLoginPath = ensureLeadingSlash(c.PostLoginPath, "/dashboard")
	c.OnboardingFirstStep = ensureLeadingSlash(c.OnboardingFirstStep, "/onboarding/profile")
}

func trimEntries(entries []string) []string {
	out := entries[:0]
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func ensureLeadingSlash(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "/") {
		return fallback
	}
	return path
}
