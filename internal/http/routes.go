package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/lessonloop/gateway/internal/domain/routes"
	"github.com/lessonloop/gateway/internal/ports"
)

// RouterServices holds everything the gateway router needs.
type RouterServices struct {
	Classifier *routes.Classifier
	Sessions   SessionManager
	Tokens     TokenChecker
	Accounts   AccountChecker
	Onboarding OnboardingChecker
	Cache      CacheClearer
	Metrics    ports.MetricsSink
	Store      Pinger

	Upstream     *url.URL
	CookieDomain string
	Paths        PipelinePaths
	Logger       *slog.Logger
}

// NewRouter assembles the gateway: its own auth and health endpoints,
// and the access pipeline wrapped around the reverse proxy for
// everything else. Middleware order is RequestID → Logging → Recover.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := CookieWriter{Domain: services.CookieDomain}

	mux := http.NewServeMux()

	healthHandlers := &HealthHandlers{Store: services.Store}
	mux.HandleFunc("GET /healthz", healthHandlers.Healthz)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Healthz)
	mux.HandleFunc("GET /readyz", healthHandlers.Readyz)

	authHandlers := &AuthHandlers{
		Sessions:  services.Sessions,
		Cookies:   cookies,
		Cache:     services.Cache,
		LoginPath: services.Paths.Login,
		Logger:    logger,
	}
	mux.HandleFunc("GET /auth/logout", authHandlers.Logout)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/clear-session", authHandlers.ClearSession)
	mux.HandleFunc("GET /auth/status", authHandlers.Status)

	pipeline := NewPipeline(PipelineOptions{
		Classifier: services.Classifier,
		Sessions:   services.Sessions,
		Tokens:     services.Tokens,
		Accounts:   services.Accounts,
		Onboarding: services.Onboarding,
		Cache:      services.Cache,
		Metrics:    services.Metrics,
		Cookies:    cookies,
		Paths:      services.Paths,
		Logger:     logger,
	})
	proxy := NewReverseProxy(services.Upstream, logger)
	mux.Handle("/", pipeline.Wrap(proxy))

	var handler http.Handler = mux
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	handler = RequestID()(handler)
	return handler
}
