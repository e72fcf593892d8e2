package auth

// Package auth contains domain-level types for sessions and session
// validation. It is pure and free of framework/adapter concerns.

import "time"

// Role represents the role a user selected for the platform.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Claims is the subset of bearer-token claims the gateway inspects.
// The token is decoded locally without signature verification; the
// gateway trusts that the issuer's signature was checked upstream when
// the session was established.
type Claims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// UserID returns the stable identifier for the principal, preferring
// the subject claim over the username claim.
func (c Claims) UserID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// Session is the server-side record kept for an authenticated user.
// ID is an opaque session identifier (random URL-safe string).
// RefreshError is set when a background access-token refresh failed;
// a session carrying it must not be trusted.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	RefreshError   string    `json:"refresh_error,omitempty"`
}

// IsTutor returns true if the session role is tutor.
func (s Session) IsTutor() bool { return s.Role == RoleTutor }

// HasRefreshError reports whether the session carries a failed-refresh marker.
func (s Session) HasRefreshError() bool { return s.RefreshError != "" }

// ValidationResult is the structured verdict produced by the token and
// account validators. Reason is informational; ShouldInvalidateSession
// distinguishes fatal credential failures from transient ones the
// pipeline is allowed to wave through.
type ValidationResult struct {
	IsValid                 bool
	Reason                  string
	ShouldInvalidateSession bool
}

// Valid returns an accepting ValidationResult.
func Valid(reason string) ValidationResult {
	return ValidationResult{IsValid: true, Reason: reason}
}

// Invalid returns a fatal rejection: the session must be destroyed.
func Invalid(reason string) ValidationResult {
	return ValidationResult{IsValid: false, Reason: reason, ShouldInvalidateSession: true}
}

// Unverified returns a non-fatal rejection: the account could not be
// checked, but the failure is infrastructure, not the credential.
func Unverified(reason string) ValidationResult {
	return ValidationResult{IsValid: false, Reason: reason, ShouldInvalidateSession: false}
}

// DefaultLogoutMarkerTTL bounds how long the logout marker set at
// logout time suppresses a session. In-flight requests racing the
// logout see a consistent answer until it expires; readers never
// clear it.
const DefaultLogoutMarkerTTL = 120 * time.Second
