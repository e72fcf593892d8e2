package ports

// Package ports defines interfaces (hexagonal ports) for the access
// pipeline's collaborators. Implementations live in internal/adapters;
// orchestration in internal/service and internal/http.

import (
	"context"
	"time"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
)

// SessionStore persists and retrieves gateway sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// AccountAPI checks the account behind an access token against the
// identity provider. FetchAccount returns nil when the provider
// confirms the account; an error carrying ErrCodeProviderRejected when
// the provider explicitly rejects it (401/403); and an error carrying
// ErrCodeUnavailable for any infrastructure failure (timeout, 5xx,
// connection error). Callers classify with internal/errors.CodeOf.
type AccountAPI interface {
	FetchAccount(ctx context.Context, accessToken string) error
}

// TokenPair is the result of a refresh-token exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenRefresher exchanges a refresh token for fresh credentials.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Profile is the slim view of a user profile the onboarding gate needs.
type Profile struct {
	UserID  string
	Email   string
	Role    domainauth.Role
	TutorID string
}

// ProfileAPI fetches profile and tutor records from the platform API
// on behalf of the user (bearer token).
type ProfileAPI interface {
	GetProfile(ctx context.Context, accessToken string) (Profile, error)
	// GetTutorRecord returns the raw tutor record as a decoded JSON
	// document so callers can evaluate field expressions against it.
	GetTutorRecord(ctx context.Context, accessToken, tutorID string) (map[string]any, error)
}

// MetricsSink receives counters emitted by the pipeline. The statsd
// adapter satisfies it; tests use a recording fake.
type MetricsSink interface {
	Count(name string, value int64, tags map[string]string)
}
