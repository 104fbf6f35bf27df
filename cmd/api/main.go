package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/access"
	httptransport "github.com/spec-kit/edushare/internal/api/http"
	"github.com/spec-kit/edushare/internal/api/http/handlers"
	"github.com/spec-kit/edushare/internal/auth"
	"github.com/spec-kit/edushare/internal/config"
	"github.com/spec-kit/edushare/internal/events"
	"github.com/spec-kit/edushare/internal/observability"
	"github.com/spec-kit/edushare/internal/persistence"
	"github.com/spec-kit/edushare/internal/repository"
	"github.com/spec-kit/edushare/internal/service"
	"github.com/spec-kit/edushare/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		userRepo  repository.UserRepository
		resetRepo repository.PasswordResetRepository
		usnRepo   repository.EligibleUSNRepository
	)
	if pool != nil {
		userRepo = repository.NewUserRepository(pool)
		resetRepo = repository.NewPasswordResetRepository(pool)
		usnRepo = repository.NewEligibleUSNRepository(pool)
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		memUsers := repository.NewMemoryUserRepository()
		userRepo = memUsers
		resetRepo = repository.NewMemoryPasswordResetRepository(memUsers)
		usnRepo = repository.NewMemoryEligibleUSNRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationList
	if redis.Available() {
		revocations = auth.NewRedisRevocationList(redis.Client)
	} else {
		logger.Warn("redis unavailable; logout will not revoke credentials")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	verifier := auth.NewVerifier(tokens, revocations)
	homes := access.HomeRoutesFromConfig(cfg.Access)
	decider := access.NewDecider(verifier, homes)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Tokens:            tokens,
		Verifier:          verifier,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	adminService := service.NewUserAdminService(userRepo, dispatcher, logger)

	authMiddleware := auth.NewAuthMiddleware(auth.MiddlewareDeps{
		Decider:    decider,
		Users:      userRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if redis.Available() {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(authService),
		Access:         handlers.NewAccessHandler(decider, access.DefaultRouteTable(), metrics, logger),
		AdminUsers:     handlers.NewAdminUsersHandler(adminService),
		EligibleUSNs:   handlers.NewEligibleUSNHandler(service.NewEligibleUSNService(usnRepo, logger)),
		Overview:       handlers.NewOverviewHandler(homes),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("metrics at shutdown", zap.Any("metrics", metrics.Snapshot()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
