package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	"github.com/lessonloop/gateway/internal/domain/routes"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/service"
)

type stubSessions struct {
	sess  *domainauth.Session
	err   error
	calls int
}

func (s *stubSessions) GetSession(_ context.Context, _ string) (*domainauth.Session, error) {
	s.calls++
	return s.sess, s.err
}

type stubTokens struct {
	res   domainauth.ValidationResult
	calls int
}

func (s *stubTokens) ValidateExpiration(_ *domainauth.Session) domainauth.ValidationResult {
	s.calls++
	return s.res
}

type stubAccounts struct {
	res   domainauth.ValidationResult
	calls int
}

func (s *stubAccounts) ValidateAccount(_ context.Context, _ *domainauth.Session, _ bool) domainauth.ValidationResult {
	s.calls++
	return s.res
}

type stubOnboarding struct {
	chk   service.OnboardingCheck
	calls int
}

func (s *stubOnboarding) CheckOnboarding(_ context.Context, _ *domainauth.Session, _ string) service.OnboardingCheck {
	s.calls++
	return s.chk
}

type stubCache struct{ clears int }

func (s *stubCache) Clear() { s.clears++ }

type pipelineFixture struct {
	sessions   *stubSessions
	tokens     *stubTokens
	accounts   *stubAccounts
	onboarding *stubOnboarding
	cache      *stubCache
	pipeline   *Pipeline
}

func testClassifier() *routes.Classifier {
	return routes.NewClassifier(routes.Sets{
		Public:    []string{"/", "/login", "/signup", "/about", "/404"},
		Protected: []string{"/dashboard", "/bookings", "/profile", "/settings"},
		Critical:  []string{"/messages", "/payments", "/admin"},
	})
}

func validSession() *domainauth.Session {
	return &domainauth.Session{
		ID:          "sess-1",
		UserID:      "user-1",
		Role:        domainauth.RoleStudent,
		AccessToken: "a.b.c",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newFixture(sess *domainauth.Session, sessErr error) *pipelineFixture {
	f := &pipelineFixture{
		sessions:   &stubSessions{sess: sess, err: sessErr},
		tokens:     &stubTokens{res: domainauth.Valid("ok")},
		accounts:   &stubAccounts{res: domainauth.Valid("ok")},
		onboarding: &stubOnboarding{},
		cache:      &stubCache{},
	}
	f.pipeline = NewPipeline(PipelineOptions{
		Classifier: testClassifier(),
		Sessions:   f.sessions,
		Tokens:     f.tokens,
		Accounts:   f.accounts,
		Onboarding: f.onboarding,
		Cache:      f.cache,
	})
	return f
}

type terminalRecord struct {
	called bool
	header http.Header
	sess   *domainauth.Session
}

func (f *pipelineFixture) serve(r *http.Request) (*httptest.ResponseRecorder, *terminalRecord) {
	rec := httptest.NewRecorder()
	term := &terminalRecord{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term.called = true
		term.header = r.Header.Clone()
		term.sess = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	f.pipeline.Wrap(next).ServeHTTP(rec, r)
	return rec, term
}

func withSessionCookie(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess-1"})
	return r
}

func withLogoutMarker(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: LogoutMarkerCookie, Value: "true"})
	return r
}

func TestPipeline_AuthFlowPathForwardsUntouched(t *testing.T) {
	f := newFixture(nil, nil)
	rec, term := f.serve(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
	assert.Zero(t, f.sessions.calls, "auth flow paths must not consult the session")
}

func TestPipeline_PublicRouteAnonymousForwardsWithoutValidation(t *testing.T) {
	f := newFixture(nil, nil)
	rec, term := f.serve(httptest.NewRequest(http.MethodGet, "/404", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
	assert.Zero(t, f.tokens.calls)
	assert.Zero(t, f.accounts.calls)
}

func TestPipeline_ProtectedRouteAnonymousRedirectsToLogin(t *testing.T) {
	f := newFixture(nil, nil)
	rec, term := f.serve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.False(t, term.called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))
}

func TestPipeline_LogoutMarkerPublicPathForwardsWithoutSessionLookup(t *testing.T) {
	f := newFixture(validSession(), nil)
	rec, term := f.serve(withLogoutMarker(httptest.NewRequest(http.MethodGet, "/about", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
	assert.Zero(t, f.sessions.calls, "marker must short-circuit before session retrieval")
}

func TestPipeline_LogoutMarkerProtectedPathRedirects(t *testing.T) {
	f := newFixture(validSession(), nil)
	req := withLogoutMarker(httptest.NewRequest(http.MethodGet, "/bookings?week=12", nil))
	rec, term := f.serve(req)

	assert.False(t, term.called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?callbackUrl=%2Fbookings%3Fweek%3D12", rec.Header().Get("Location"))

	// The marker is left to expire naturally, never cleared here.
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, LogoutMarkerCookie, c.Name)
	}
}

func TestPipeline_ExchangeFailureRecoversWithCookieClearingRedirect(t *testing.T) {
	f := newFixture(nil, autherrors.ExchangeFailed(errors.New("invalid_grant")))
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	rec, term := f.serve(req)

	assert.False(t, term.called)
	assert.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "/auth/clear-session?")
	assert.Contains(t, loc, "callbackUrl=%2Fdashboard")
	assert.Contains(t, loc, "error=exchange_failed")
}

func TestPipeline_ExchangeFailureOnPublicPathOmitsErrorIndicator(t *testing.T) {
	f := newFixture(nil, autherrors.ExchangeFailed(errors.New("invalid_grant")))
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/about", nil))
	rec, _ := f.serve(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotContains(t, rec.Header().Get("Location"), "error=")
}

func TestPipeline_UnexpectedSessionErrorIs500(t *testing.T) {
	f := newFixture(nil, errors.New("redis down"))
	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	assert.False(t, term.called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPipeline_RefreshErrorMarkerInvalidates(t *testing.T) {
	sess := validSession()
	sess.RefreshError = "refresh_token_failed"
	f := newFixture(sess, nil)
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	rec, term := f.serve(req)

	assert.False(t, term.called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/logout?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))
	assert.Equal(t, 1, f.cache.clears, "invalidation clears the verdict cache")

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == ProfileCacheCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "invalidation clears the client profile cache cookie")
}

func TestPipeline_HomeRedirectsAuthenticatedUsers(t *testing.T) {
	f := newFixture(validSession(), nil)
	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.False(t, term.called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestPipeline_HomeForwardsAnonymousUsers(t *testing.T) {
	f := newFixture(nil, nil)
	rec, term := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
}

func TestPipeline_LoginPageBouncesAuthenticatedUsers(t *testing.T) {
	f := newFixture(validSession(), nil)

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/login?callbackUrl=%2Fbookings", nil))
	rec, _ := f.serve(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/bookings", rec.Header().Get("Location"))

	req = withSessionCookie(httptest.NewRequest(http.MethodGet, "/login", nil))
	rec, _ = f.serve(req)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestPipeline_LoginPageRejectsAbsoluteCallback(t *testing.T) {
	f := newFixture(validSession(), nil)
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/login?callbackUrl=https%3A%2F%2Fevil.example%2Fx", nil))
	rec, _ := f.serve(req)

	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestPipeline_FatalTokenFailureInvalidates(t *testing.T) {
	f := newFixture(validSession(), nil)
	f.tokens.res = domainauth.Invalid("token expired")

	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))
	assert.False(t, term.called)
	assert.Equal(t, "/auth/logout?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))
}

func TestPipeline_NonFatalTokenFailureRedirectsWithoutInvalidation(t *testing.T) {
	f := newFixture(validSession(), nil)
	f.tokens.res = domainauth.Unverified("token not judged")

	rec, _ := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))
	assert.Zero(t, f.cache.clears)
}

func TestPipeline_BasicLevelSkipsAccountValidation(t *testing.T) {
	f := newFixture(validSession(), nil)
	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
	assert.Equal(t, 1, f.tokens.calls)
	assert.Zero(t, f.accounts.calls)
}

func TestPipeline_CriticalLevelValidatesAccountOnce(t *testing.T) {
	f := newFixture(validSession(), nil)
	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/messages", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called)
	assert.Equal(t, 1, f.accounts.calls)
}

func TestPipeline_ProviderRejectionOnCriticalInvalidates(t *testing.T) {
	f := newFixture(validSession(), nil)
	f.accounts.res = domainauth.Invalid("identity provider rejected account")

	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/payments", nil)))
	assert.False(t, term.called)
	assert.Equal(t, "/auth/logout?callbackUrl=%2Fpayments", rec.Header().Get("Location"))
}

func TestPipeline_ProviderOutageFailsOpen(t *testing.T) {
	f := newFixture(validSession(), nil)
	f.accounts.res = domainauth.Unverified("identity provider unreachable")

	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/payments", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, term.called, "infrastructure failure must not log users out")
}

func TestPipeline_OnboardingRedirect(t *testing.T) {
	f := newFixture(validSession(), nil)
	f.onboarding.chk = service.OnboardingCheck{NeedsOnboarding: true, RedirectTo: "/onboarding/profile"}

	rec, term := f.serve(withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))
	assert.False(t, term.called)
	assert.Equal(t, "/onboarding/profile", rec.Header().Get("Location"))
}

func TestPipeline_ForwardStampsIdentityHeaders(t *testing.T) {
	f := newFixture(validSession(), nil)
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	// Client-supplied identity headers must never pass through.
	req.Header.Set(HeaderGatewayUser, "spoofed")
	req.Header.Set(HeaderGatewayRole, "admin")

	rec, term := f.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", term.header.Get(HeaderGatewayUser))
	assert.Equal(t, "student", term.header.Get(HeaderGatewayRole))
	require.NotNil(t, term.sess)
	assert.Equal(t, "sess-1", term.sess.ID)
}

func TestPipeline_AnonymousForwardStripsIdentityHeaders(t *testing.T) {
	f := newFixture(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set(HeaderGatewayUser, "spoofed")

	_, term := f.serve(req)
	require.True(t, term.called)
	assert.Empty(t, term.header.Get(HeaderGatewayUser))
}
