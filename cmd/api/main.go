package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/madadental/clinic-api/config"
	"github.com/madadental/clinic-api/internal/email"
	"github.com/madadental/clinic-api/internal/handler"
	appointmentHandler "github.com/madadental/clinic-api/internal/handler/appointment"
	authHandler "github.com/madadental/clinic-api/internal/handler/auth"
	patientHandler "github.com/madadental/clinic-api/internal/handler/patient"
	"github.com/madadental/clinic-api/internal/imagestore"
	"github.com/madadental/clinic-api/internal/middleware"
	"github.com/madadental/clinic-api/internal/repository/postgres"
	"github.com/madadental/clinic-api/internal/router"
	appointmentService "github.com/madadental/clinic-api/internal/service/appointment"
	authService "github.com/madadental/clinic-api/internal/service/auth"
	patientService "github.com/madadental/clinic-api/internal/service/patient"
	"github.com/madadental/clinic-api/internal/worker"
	"github.com/madadental/clinic-api/pkg/logger"
)

const migrationsDir = "migrations"

func main() {
	logger.Setup(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db, migrationsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// External services
	images := imagestore.NewClient(cfg.ImageHost)
	mailer := email.NewSMTPService(cfg.SMTP)

	// Domain services
	patientSvc := patientService.NewService(patientRepo, images)
	authSvc := authService.NewService(adminRepo, patientRepo, cfg.JWT)
	appointmentSvc := appointmentService.NewService(appointmentRepo, mailer)

	// Handlers
	h := handler.NewHandler()
	emitter := handler.NewEmitter(outboxRepo)
	authH := authHandler.NewHandler(authSvc, cfg.Server.SecureCookies)
	patientH := patientHandler.NewHandler(patientSvc, emitter)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc, emitter)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	rateLimit := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	if !cfg.RateLimit.Enabled || rateLimit <= 0 {
		rateLimit = rate.Inf
	}

	r := router.NewRouter(authMiddleware, authH, patientH, appointmentH, h, router.Config{
		RateLimit:     rateLimit,
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "clinic_api",
		Maintenance:   func() bool { return cfg.Server.Maintenance },
	})
	r.Setup()

	// Outbox worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	redisClient := newRedisClient(cfg.Redis)
	if redisClient != nil {
		outboxWorker := worker.NewOutboxWorker(outboxRepo, redisClient, cfg.Redis.EventChannel, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)
		go outboxWorker.Run(workerCtx)
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info().Msg("server stopped")
}

// newRedisClient returns nil when no Redis URL is configured; the API runs
// without dashboard refresh events in that case.
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("invalid redis URL, events disabled")
		return nil
	}
	return redis.NewClient(opts)
}
