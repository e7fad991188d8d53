// Package app wires configuration, storage, services and transport into a
// running HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	achievementrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/achievement"
	cellrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/cell"
	devicerepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/device"
	regionrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/region"
	statsrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/stats"
	tokenrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/token"
	userrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/user"
	visitrepo "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/visit"
	"github.com/trekkr-app/trekkr-backend/internal/auth"
	"github.com/trekkr-app/trekkr-backend/internal/config"
	achievementsvc "github.com/trekkr-app/trekkr-backend/internal/service/achievement"
	authsvc "github.com/trekkr-app/trekkr-backend/internal/service/auth"
	ingestsvc "github.com/trekkr-app/trekkr-backend/internal/service/ingest"
	statssvc "github.com/trekkr-app/trekkr-backend/internal/service/stats"
	"github.com/trekkr-app/trekkr-backend/internal/transport/middleware"
	"github.com/trekkr-app/trekkr-backend/internal/transport/rest"
)

const tokenCleanupInterval = time.Hour

// Run is the application entry point. It loads configuration, connects to
// the database, assembles services and the HTTP stack, and serves until ctx
// is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	users := userrepo.New(pool)
	tokens := tokenrepo.New(pool)
	devices := devicerepo.New(pool)
	regions := regionrepo.New(pool)
	cells := cellrepo.New(pool)
	visits := visitrepo.New(pool)
	achievements := achievementrepo.New(pool)
	stats := statsrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	authService := authsvc.NewService(logger, users, tokens, jwt, cfg.Auth)
	achievementService := achievementsvc.NewService(logger, achievements, stats)
	ingestService := ingestsvc.NewService(logger, visits, cells, regions, devices, achievementService, tx, cfg.Ingest)
	statsService := statssvc.NewService(logger, stats)

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(rest.Handlers{
		Auth:         rest.NewAuthHandler(authService, logger),
		Location:     rest.NewLocationHandler(ingestService, logger),
		Achievements: rest.NewAchievementHandler(achievementService, logger),
		Stats:        rest.NewStatsHandler(statsService, logger),
		Health:       rest.NewHealthHandler(pool, BuildVersion()),
	}, limiter.Limit(cfg.Ingest.RateLimitPerMinute))

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(authService),
	)(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go cleanupExpiredTokens(ctx, logger, authService)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("http server listening", slog.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

// cleanupExpiredTokens periodically purges refresh tokens past their expiry
// so the table does not grow without bound.
func cleanupExpiredTokens(ctx context.Context, logger *slog.Logger, svc *authsvc.Service) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.CleanupExpiredTokens(ctx)
			if err != nil {
				logger.Error("cleanup expired tokens", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Info("cleaned up expired tokens", slog.Int("count", n))
			}
		}
	}
}
