package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/lessonloop/gateway/config"
	"github.com/lessonloop/gateway/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisDeps{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	gw, err := bootstrap.BuildGateway(ctx, bootstrap.GatewayDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := gw.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics sink failed", "error", cerr)
		}
	}()

	return bootstrap.RunHTTPServer(ctx, bootstrap.HTTPServerConfig{
		Addr:            cfg.HTTP.Addr,
		Handler:         gw.Handler,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting lessonloop gateway",
		"addr", cfg.HTTP.Addr,
		"upstream", cfg.HTTP.UpstreamURL,
		"issuer", cfg.Identity.IssuerURL,
		"gated_role", cfg.Identity.GatedRole,
		"dev", cfg.IsDev)
}
