package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bounswe/bounswe2025group8-sub001/internal/api"
	"github.com/bounswe/bounswe2025group8-sub001/internal/api/handlers"
	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
	"github.com/bounswe/bounswe2025group8-sub001/internal/infrastructure/auth"
	"github.com/bounswe/bounswe2025group8-sub001/internal/infrastructure/client"
	"github.com/bounswe/bounswe2025group8-sub001/internal/infrastructure/ratelimit"
	"github.com/bounswe/bounswe2025group8-sub001/internal/logger"
	"github.com/bounswe/bounswe2025group8-sub001/internal/repository"
	"github.com/bounswe/bounswe2025group8-sub001/internal/usecase"
	"github.com/bounswe/bounswe2025group8-sub001/internal/worker"
)

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, audit worker and token cleanup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if migrateFirst {
				if err := migrateUp(cfg); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before starting")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Log)
	ctx = log.WithContext(ctx)

	db, err := client.NewPostgresClient(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.DB.Host).Msg("connected to postgres")

	publisher, err := client.NewRabbitMQClient(cfg.RabbitMQ, log)
	if err != nil {
		return err
	}
	defer publisher.Close()
	log.Info().Str("queue", cfg.RabbitMQ.AuditQueue).Msg("connected to rabbitmq")

	health := map[string]handlers.HealthChecker{"postgres": db}

	// без Redis сервис работает, просто без ограничения частоты
	var limiter api.RateLimiter
	if cfg.RateLimit.Enabled {
		rdb, err := client.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewLimiter(rdb.Client, "helpboard:ratelimit:")
			health["redis"] = rdb
		}
	}

	txManager := repository.NewTxManager(db.Pool)
	userRepo := repository.NewUserRepository(db.Pool)
	taskRepo := repository.NewTaskRepository(db.Pool)
	volunteerRepo := repository.NewVolunteerRepository(db.Pool)
	reviewRepo := repository.NewReviewRepository(db.Pool)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.Pool)
	auditRepo := repository.NewTaskAuditRepository(db.Pool)

	auditor := usecase.NewAuditor(publisher)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	router := api.NewRouter(api.Deps{
		Tasks:      usecase.NewTaskService(txManager, taskRepo, volunteerRepo, userRepo, auditRepo, auditor),
		Volunteers: usecase.NewVolunteerService(txManager, taskRepo, volunteerRepo, auditor),
		Reviews:    usecase.NewReviewService(taskRepo, volunteerRepo, reviewRepo, auditor),
		Users:      usecase.NewUserService(userRepo, reviewRepo),
		Auth:       usecase.NewAuthService(txManager, userRepo, refreshTokenRepo, auth.NewPasswordManager(), jwtManager),
		Tokens:     jwtManager,
		Limiter:    limiter,
		RateLimit:  cfg.RateLimit,
		Health:     health,
		Log:        log,
	})

	cleanup, err := worker.NewTokenCleanup(cfg.Cleanup.Schedule, refreshTokenRepo, log)
	if err != nil {
		return err
	}
	auditWorker := worker.NewAuditWorker(cfg.RabbitMQ, auditRepo, log)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return auditWorker.Start(gctx) })
	g.Go(func() error { return cleanup.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, auditor, cfg.HTTP, log)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}

// shutdown останавливает HTTP сервер и дожидается фоновых публикаций аудита
func shutdown(srv *http.Server, auditor *usecase.Auditor, cfg config.HTTPConfig, log zerolog.Logger) error {
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	auditor.Wait()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
