package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	"github.com/lessonloop/gateway/internal/domain/routes"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/ports"
	"github.com/lessonloop/gateway/internal/service"
)

// Identity headers stamped on forwarded requests so the upstream app
// can trust the gateway's verdict instead of re-validating.
const (
	HeaderGatewayUser = "X-Gateway-User"
	HeaderGatewayRole = "X-Gateway-Role"
)

// SessionGetter retrieves the session for a request. It may return the
// recognizable exchange-failure error class; the pipeline applies
// dedicated recovery for that one class and treats any other error as
// unexpected.
type SessionGetter interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// TokenChecker validates a session's bearer token locally.
type TokenChecker interface {
	ValidateExpiration(sess *domainauth.Session) domainauth.ValidationResult
}

// AccountChecker validates the account behind a session remotely.
type AccountChecker interface {
	ValidateAccount(ctx context.Context, sess *domainauth.Session, forceRefresh bool) domainauth.ValidationResult
}

// OnboardingChecker decides whether a request must divert into onboarding.
type OnboardingChecker interface {
	CheckOnboarding(ctx context.Context, sess *domainauth.Session, pathname string) service.OnboardingCheck
}

// CacheClearer empties the shared account-validation cache.
type CacheClearer interface {
	Clear()
}

// PipelinePaths are the well-known paths the pipeline steers around.
type PipelinePaths struct {
	// Home is the public landing page.
	Home string
	// Login is the page unauthenticated users are sent to.
	Login string
	// PostLogin is where authenticated users land by default.
	PostLogin string
	// Logout is the session-destroying endpoint invalidation targets.
	Logout string
	// ClearSession is the cookie-clearing endpoint exchange recovery targets.
	ClearSession string
	// AuthPrefixes are forwarded untouched to avoid self-referential loops.
	AuthPrefixes []string
}

func defaultPipelinePaths() PipelinePaths {
	return PipelinePaths{
		Home:         "/",
		Login:        "/login",
		PostLogin:    "/dashboard",
		Logout:       "/auth/logout",
		ClearSession: "/auth/clear-session",
		AuthPrefixes: []string{"/auth", "/api/auth"},
	}
}

// PipelineOptions groups dependencies for the Pipeline.
type PipelineOptions struct {
	Classifier *routes.Classifier
	Sessions   SessionGetter
	Tokens     TokenChecker
	Accounts   AccountChecker
	Onboarding OnboardingChecker
	Cache      CacheClearer
	Metrics    ports.MetricsSink
	Cookies    CookieWriter
	Paths      PipelinePaths
	Logger     *slog.Logger
}

// Pipeline is the per-request access-control state machine. One
// invocation runs per inbound request; invocations are independent and
// share only the account-validation cache, which is safe for
// concurrent use. The step order is load-bearing: the logout-marker
// check must precede session retrieval or the race it prevents
// reappears.
type Pipeline struct {
	classifier *routes.Classifier
	sessions   SessionGetter
	tokens     TokenChecker
	accounts   AccountChecker
	onboarding OnboardingChecker
	cache      CacheClearer
	metrics    ports.MetricsSink
	cookies    CookieWriter
	paths      PipelinePaths
	logger     *slog.Logger
}

// NewPipeline constructs a Pipeline. Zero-value Paths fields get the
// platform defaults.
func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	paths := opts.Paths
	defaults := defaultPipelinePaths()
	if paths.Home == "" {
		paths.Home = defaults.Home
	}
	if paths.Login == "" {
		paths.Login = defaults.Login
	}
	if paths.PostLogin == "" {
		paths.PostLogin = defaults.PostLogin
	}
	if paths.Logout == "" {
		paths.Logout = defaults.Logout
	}
	if paths.ClearSession == "" {
		paths.ClearSession = defaults.ClearSession
	}
	if len(paths.AuthPrefixes) == 0 {
		paths.AuthPrefixes = defaults.AuthPrefixes
	}
	return &Pipeline{
		classifier: opts.Classifier,
		sessions:   opts.Sessions,
		tokens:     opts.Tokens,
		accounts:   opts.Accounts,
		onboarding: opts.Onboarding,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		cookies:    opts.Cookies,
		paths:      paths,
		logger:     logger,
	}
}

type outcome string

const (
	outcomeForward    outcome = "forward"
	outcomeRedirect   outcome = "redirect"
	outcomeInvalidate outcome = "invalidate"
	outcomeError      outcome = "error"
)

// decision is a terminal verdict for one request. For outcomeForward,
// sess (possibly nil) rides along to the next handler.
type decision struct {
	outcome outcome
	target  string
	reason  string
	err     error
	sess    *domainauth.Session
}

func forwardDecision(sess *domainauth.Session, reason string) decision {
	return decision{outcome: outcomeForward, sess: sess, reason: reason}
}

func redirectDecision(target, reason string) decision {
	return decision{outcome: outcomeRedirect, target: target, reason: reason}
}

// Wrap turns the pipeline into middleware around next, which in the
// shipped binary is the reverse proxy to the upstream app.
func (p *Pipeline) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := p.decide(w, r)
		p.count(d)

		switch d.outcome {
		case outcomeForward:
			// Strip any client-supplied identity headers before
			// stamping our own.
			r.Header.Del(HeaderGatewayUser)
			r.Header.Del(HeaderGatewayRole)
			if d.sess != nil {
				r.Header.Set(HeaderGatewayUser, d.sess.UserID)
				r.Header.Set(HeaderGatewayRole, string(d.sess.Role))
				r = r.WithContext(SetSessionInContext(r.Context(), d.sess))
			}
			next.ServeHTTP(w, r)

		case outcomeRedirect, outcomeInvalidate:
			http.Redirect(w, r, d.target, http.StatusFound)

		case outcomeError:
			p.logger.ErrorContext(r.Context(), "session retrieval failed",
				"path", r.URL.Path, "error", d.err)
			WriteError(w, ErrorParams{
				Code:    http.StatusInternalServerError,
				ErrCode: "session_unavailable",
				Err:     d.err,
			})
		}
	})
}

// decide runs the ordered guards and returns the first terminal
// decision. Cookie side effects (profile-cache clearing on
// invalidation) happen here so the caller only has to act on the
// verdict.
func (p *Pipeline) decide(w http.ResponseWriter, r *http.Request) decision {
	path := r.URL.Path
	class := p.classifier.Classify(path)

	// Own auth endpoints forward untouched: they are the targets of the
	// pipeline's redirects and must never re-enter it.
	if p.isAuthFlowPath(path) {
		return forwardDecision(nil, "auth flow path")
	}

	// Logout marker: a recent logout distrusts whatever the session
	// store still returns. The marker is left to expire on its own.
	if HasLogoutMarker(r) {
		if class.IsPublic || path == p.paths.Home {
			return forwardDecision(nil, "logout in progress, public path")
		}
		return redirectDecision(
			loginRedirectURL(p.paths.Login, callbackFromRequest(r)),
			"logout in progress")
	}

	sess, err := p.sessions.GetSession(r.Context(), SessionIDFromRequest(r))
	if err != nil {
		if autherrors.IsExchangeFailure(err) {
			return p.recoverExchangeFailure(r, class)
		}
		return decision{outcome: outcomeError, err: err}
	}

	if sess != nil && sess.HasRefreshError() &&
		path != p.paths.Logout && path != p.paths.ClearSession {
		return p.invalidate(w, r, "refresh token failed")
	}

	if path == p.paths.Home {
		if sess != nil {
			return redirectDecision(p.paths.PostLogin, "authenticated user on landing page")
		}
		return forwardDecision(nil, "public landing page")
	}

	// Public routes skip validation, except the login page for an
	// authenticated user, which bounces to its callback below.
	if class.Level == routes.LevelNone && !(sess != nil && path == p.paths.Login) {
		return forwardDecision(sess, "public route")
	}

	if sess == nil {
		return redirectDecision(
			loginRedirectURL(p.paths.Login, callbackFromRequest(r)),
			"authentication required")
	}

	if path == p.paths.Login {
		target := safeRedirectPath(r.URL.Query().Get(CallbackParam))
		if target == "/" {
			target = p.paths.PostLogin
		}
		return redirectDecision(target, "already authenticated")
	}

	if res := p.tokens.ValidateExpiration(sess); !res.IsValid {
		if res.ShouldInvalidateSession {
			return p.invalidate(w, r, res.Reason)
		}
		return redirectDecision(
			loginRedirectURL(p.paths.Login, callbackFromRequest(r)),
			res.Reason)
	}

	if class.Level == routes.LevelComplete {
		res := p.accounts.ValidateAccount(r.Context(), sess, false)
		if !res.IsValid {
			if res.ShouldInvalidateSession {
				return p.invalidate(w, r, res.Reason)
			}
			// Infrastructure failure: fail open rather than logging out
			// every active user during a provider outage.
			p.logger.WarnContext(r.Context(), "account validation inconclusive, continuing",
				"path", path, "user_id", sess.UserID, "reason", res.Reason)
		}
	}

	if p.onboarding != nil {
		if chk := p.onboarding.CheckOnboarding(r.Context(), sess, path); chk.NeedsOnboarding {
			return redirectDecision(chk.RedirectTo, "onboarding incomplete")
		}
	}

	return forwardDecision(sess, "validated")
}

func (p *Pipeline) isAuthFlowPath(path string) bool {
	for _, prefix := range p.paths.AuthPrefixes {
		if routes.MatchesRoutePattern(path, prefix) {
			return true
		}
	}
	return false
}

// invalidate destroys trust in the current session: the shared verdict
// cache is cleared wholesale (the session is being torn down anyway),
// the client-readable profile cache cookie is expired, and the user is
// sent through the logout endpoint with a callback to where they were.
// Each step is best-effort; one failing must not block the others.
func (p *Pipeline) invalidate(w http.ResponseWriter, r *http.Request, reason string) decision {
	if p.cache != nil {
		p.cache.Clear()
	}
	p.cookies.Clear(w, r, ProfileCacheCookie)

	p.logger.WarnContext(r.Context(), "invalidating session",
		"path", r.URL.Path, "reason", reason)

	params := url.Values{}
	params.Set(CallbackParam, callbackFromRequest(r))
	return decision{
		outcome: outcomeInvalidate,
		target:  buildRedirectURL(p.paths.Logout, params),
		reason:  reason,
	}
}

// recoverExchangeFailure handles the one error class session retrieval
// may surface: a poisoned record from a failed authorization-code
// exchange. There is no session to invalidate yet, so recovery is a
// cookie-clearing redirect; the error indicator is withheld on public
// and auth-flow paths where no login page will render it.
func (p *Pipeline) recoverExchangeFailure(r *http.Request, class routes.Classification) decision {
	callback := safeRedirectPath(r.URL.Query().Get(CallbackParam))
	if callback == "/" {
		callback = callbackFromRequest(r)
	}

	params := url.Values{}
	params.Set(CallbackParam, callback)
	if !class.IsPublic && !p.isAuthFlowPath(r.URL.Path) {
		params.Set("error", "exchange_failed")
	}

	p.logger.WarnContext(r.Context(), "recovering from code-exchange failure",
		"path", r.URL.Path)
	return redirectDecision(buildRedirectURL(p.paths.ClearSession, params), "exchange failure")
}

func (p *Pipeline) count(d decision) {
	if p.metrics == nil {
		return
	}
	p.metrics.Count("gateway.decision", 1, map[string]string{"outcome": string(d.outcome)})
}
