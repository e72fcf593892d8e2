package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/lessonloop/gateway/config"
	"github.com/lessonloop/gateway/internal/adapters/identity"
	"github.com/lessonloop/gateway/internal/adapters/profile"
	redisadapter "github.com/lessonloop/gateway/internal/adapters/redis"
	"github.com/lessonloop/gateway/internal/domain/routes"
	httpx "github.com/lessonloop/gateway/internal/http"
	"github.com/lessonloop/gateway/internal/observability/statsd"
	"github.com/lessonloop/gateway/internal/service"
)

// GatewayDeps contains everything BuildGateway needs.
type GatewayDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Gateway is the fully wired gateway: the HTTP handler plus the
// resources the caller must close on shutdown.
type Gateway struct {
	Handler http.Handler
	Metrics *statsd.Client
}

// Close releases resources held by the gateway.
func (g *Gateway) Close() error {
	if g == nil || g.Metrics == nil {
		return nil
	}
	return g.Metrics.Close()
}

// BuildGateway discovers the identity-provider endpoints and wires
// adapters, services, and the access pipeline into an HTTP handler.
func BuildGateway(ctx context.Context, deps GatewayDeps) (*Gateway, error) {
	if deps.Config == nil {
		return nil, errors.New("gateway config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	endpoints, err := identity.Discover(ctx, cfg.Identity.IssuerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discover identity provider: %w", err)
	}
	logger.InfoContext(ctx, "identity provider discovered",
		"issuer", endpoints.Issuer,
		"userinfo_url", endpoints.UserinfoURL,
	)

	idp, err := identity.NewClient(identity.Config{
		UserinfoURL:  endpoints.UserinfoURL,
		TokenURL:     endpoints.TokenURL,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("build identity client: %w", err)
	}

	profiles, err := profile.NewClient(profile.Config{
		BaseURL: cfg.Identity.ProfileBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("build profile client: %w", err)
	}

	metrics, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build statsd client: %w", err)
	}

	store := redisadapter.NewSessionStoreWithOptions(deps.RedisClient, redisadapter.StoreOptions{
		Prefix: cfg.Redis.KeyPrefix,
		MaxTTL: cfg.Redis.SessionTTL,
	})

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store:     store,
		Refresher: idp,
		Logger:    logger,
	})
	tokens := service.NewTokenValidator()
	accounts := service.NewAccountValidator(service.AccountValidatorOptions{
		Accounts: idp,
		Tokens:   tokens,
		Metrics:  metrics,
		Logger:   logger,
	})
	onboarding, err := service.NewOnboardingGate(service.OnboardingGateOptions{
		Profiles:       profiles,
		Logger:         logger,
		GatedRole:      cfg.Identity.GatedRole,
		RequiredFields: cfg.Identity.RequiredFields,
		FirstStepPath:  cfg.Routes.OnboardingFirstStep,
	})
	if err != nil {
		return nil, fmt.Errorf("build onboarding gate: %w", err)
	}

	classifier := routes.NewClassifier(routes.Sets{
		Public:    cfg.Routes.Public,
		Protected: cfg.Routes.Protected,
		Critical:  cfg.Routes.Critical,
	})
	if overlaps := classifier.Overlaps(); len(overlaps) > 0 {
		logger.WarnContext(ctx, "route sets overlap, public wins over critical over protected",
			"entries", overlaps)
	}

	upstream, err := url.Parse(cfg.HTTP.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must be absolute", cfg.HTTP.UpstreamURL)
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Classifier: classifier,
		Sessions:   sessions,
		Tokens:     tokens,
		Accounts:   accounts,
		Onboarding: onboarding,
		Cache:      accounts.Cache(),
		Metrics:    metrics,
		Store:      store,

		Upstream:     upstream,
		CookieDomain: cfg.HTTP.CookieDomain,
		Paths: httpx.PipelinePaths{
			Login:     cfg.Routes.LoginPath,
			PostLogin: cfg.Routes.PostLoginPath,
		},
		Logger: logger,
	})

	return &Gateway{Handler: handler, Metrics: metrics}, nil
}
