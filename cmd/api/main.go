package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"school/api/internal/cache"
	"school/api/internal/config"
	"school/api/internal/database"
	"school/api/internal/handlers"
	"school/api/internal/jobs"
	"school/api/internal/log"
	"school/api/internal/repository"
	"school/api/internal/security"
	"school/api/internal/server"
	"school/api/internal/service"
	"school/api/internal/sessions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	if err := database.Migrate(ctx, cfg.Postgres.DSN); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	// Dependencies are built once here and handed down; nothing holds
	// process-global state.
	accountRepo := repository.NewAccountRepository(dbPool)
	scheduleRepo := repository.NewScheduleRepository(dbPool)
	tuitionRepo := repository.NewTuitionRepository(dbPool)

	sessionStore := sessions.NewStore(redisClient, cfg.Security.SessionTTL, cfg.Security.RememberTTL)
	resetCodec := security.NewResetCodec(cfg.Security.SecretKey)
	resetMarker := cache.NewOnceMarker(redisClient, "pwreset:used")

	authService := service.NewAuthService(accountRepo, sessionStore, resetMarker, resetCodec, cfg, logger)
	accountService := service.NewAccountService(accountRepo, sessionStore, cfg, logger)
	scheduleService := service.NewScheduleService(scheduleRepo)
	tuitionService := service.NewTuitionService(tuitionRepo)

	if err := accountService.EnsureBootstrap(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap seed failed")
	}

	handlerSet := handlers.NewHandlerSet(
		logger, cfg,
		authService, accountService, scheduleService, tuitionService,
		sessionStore, accountRepo,
		dbPool, redisClient,
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sessionStore, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
