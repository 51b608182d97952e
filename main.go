package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumicare/review-backend/config"
	"github.com/lumicare/review-backend/db"
	"github.com/lumicare/review-backend/handlers"
	"github.com/lumicare/review-backend/internal/store/postgres"
	"github.com/lumicare/review-backend/logger"
	"github.com/lumicare/review-backend/router"
	"github.com/lumicare/review-backend/services"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() {
		_ = logger.Close()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	feedbackStore := postgres.NewFeedbackStore(pool)

	// Notification is best-effort and optional: no API key means the
	// confirmation email step is skipped entirely.
	var notifier services.Notifier
	var workerPool *services.WorkerPool
	if cfg.Email.Enabled() {
		notifier = services.NewEmailService(&cfg.Email)
		workerPool = services.NewWorkerPool(cfg.WorkerPool,
			time.Duration(cfg.Notification.TimeoutSeconds)*time.Second)
		workerPool.Start()
	} else {
		log.Info("No Resend API key configured, confirmation emails disabled")
	}

	// Rate limiting is likewise optional: no Redis address disables it.
	var rateLimiter services.RateLimiterInterface
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		rateLimiter = services.NewRateLimitService(redisClient)
	} else {
		log.Info("No Redis address configured, rate limiting disabled")
	}

	var dispatcher services.JobDispatcher
	if workerPool != nil {
		dispatcher = workerPool
	}
	reviewHandler := handlers.NewReviewHandler(feedbackStore, notifier, dispatcher)
	healthHandler := handlers.NewHealthHandler(feedbackStore)

	r := router.New(router.Dependencies{
		Config:        cfg,
		ReviewHandler: reviewHandler,
		HealthHandler: healthHandler,
		RateLimiter:   rateLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}

	if workerPool != nil {
		poolCtx, poolCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds)*time.Second)
		defer poolCancel()
		if err := workerPool.Shutdown(poolCtx); err != nil {
			log.Errorw("Worker pool shutdown incomplete", "error", err)
		}
	}

	log.Info("Server stopped")
}
