package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redisadapter "github.com/lessonloop/gateway/internal/adapters/redis"
	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/ports"
)

// refreshErrorMarker is the value stored on a session whose access
// token could not be refreshed. The pipeline treats any non-empty
// marker as fatal; the constant keeps logs greppable.
const refreshErrorMarker = "refresh_token_failed"

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store     ports.SessionStore
	Refresher ports.TokenRefresher
	Logger    *slog.Logger
}

// SessionService retrieves sessions for the pipeline, transparently
// refreshing stale access tokens. It is the one collaborator allowed
// to return an error the pipeline inspects: the exchange-failure class
// (errors.Is(err, autherrors.ErrExchangeFailed)). Everything else it
// reports is either a session, nil (anonymous), or an unexpected error.
type SessionService struct {
	store     ports.SessionStore
	refresher ports.TokenRefresher
	logger    *slog.Logger

	// now is overridable for tests.
	now func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		store:     opts.Store,
		refresher: opts.Refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSession loads the session for sessionID. Returns (nil, nil) when
// there is no session (no ID, unknown ID, expired). A session whose
// access token lapsed is refreshed in place; if the provider rejects
// the refresh the session is returned carrying its refresh-error
// marker so the pipeline can invalidate it.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redisadapter.ErrNotFound) {
			return nil, nil
		}
		// Exchange failures keep their class through the wrap so the
		// pipeline's recovery can recognize them.
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.HasRefreshError() {
		return &sess, nil
	}

	if s.tokenStale(sess) && s.refresher != nil {
		s.refreshToken(ctx, &sess)
	}

	return &sess, nil
}

// Logout deletes the server-side session record.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) tokenStale(sess domainauth.Session) bool {
	return !sess.TokenExpiresAt.IsZero() && s.now().After(sess.TokenExpiresAt)
}

// refreshToken exchanges the refresh token and updates the session in
// place. Provider rejection stamps the refresh-error marker; a
// transport failure leaves the session untouched so the token
// validator can judge the (possibly expired) token on its own.
func (s *SessionService) refreshToken(ctx context.Context, sess *domainauth.Session) {
	pair, err := s.refresher.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if autherrors.CodeOf(err) == autherrors.ErrCodeRefreshFailed {
			sess.RefreshError = refreshErrorMarker
			s.persist(ctx, *sess, "persist refresh-error marker")
			return
		}
		s.logger.WarnContext(ctx, "token refresh unavailable",
			"session_id", sess.ID, "error", err)
		return
	}

	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.TokenExpiresAt = pair.ExpiresAt
	s.persist(ctx, *sess, "persist refreshed token")
}

// persist saves best-effort: a failed save costs another refresh on
// the next request, nothing more.
func (s *SessionService) persist(ctx context.Context, sess domainauth.Session, op string) {
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, op+" failed", "session_id", sess.ID, "error", err)
	}
}
