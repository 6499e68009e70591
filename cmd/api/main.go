package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tuition-match-api/api/swagger"
	"github.com/noah-isme/tuition-match-api/internal/handler"
	"github.com/noah-isme/tuition-match-api/internal/repository"
	"github.com/noah-isme/tuition-match-api/internal/router"
	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/cache"
	"github.com/noah-isme/tuition-match-api/pkg/config"
	"github.com/noah-isme/tuition-match-api/pkg/database"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/jobs"
	"github.com/noah-isme/tuition-match-api/pkg/logger"
)

// @title Tuition Match API
// @version 1.0.0
// @description Tutor request, assignment, application and demo class workflow
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := database.NewPostgres(dbCtx, cfg.Database)
	dbCancel()
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Sugar().Fatalw("schema migration failed", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	validate := dto.NewValidator()

	users := repository.NewUserRepository(db)
	requests := repository.NewTutorRequestRepository(db)
	assignments := repository.NewTutorAssignmentRepository(db)
	applications := repository.NewApplicationRepository(db)
	demos := repository.NewDemoClassRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var emailSender service.Sender = service.NewLogSender("email", logr)
	if cfg.Notifications.SendGridAPIKey != "" {
		emailSender = service.NewSendGridSender(cfg.Notifications.SendGridAPIKey, cfg.Notifications.FromName, cfg.Notifications.FromEmail)
	}
	notifications := service.NewNotificationService(users, emailSender, service.NewLogSender("sms", logr), metrics, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, cfg.Notifications.Enabled)
	notifications.Start(context.Background())

	deps := router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		Auth:    authSvc,
		Audit:   repository.NewAuditRepository(db),
		Metrics: metrics,

		TutorRequests: service.NewTutorRequestService(requests, assignments, users, cacheSvc, metrics, validate, logr),
		Assignments: service.NewAssignmentService(database.Runner(db), requests, assignments, demos, users, cacheSvc, notifications, metrics, validate, logr, service.AssignmentConfig{
			ExportsEnabled: cfg.Exports.Enabled,
			CacheTTL:       cfg.Cache.TTL,
		}),
		Applications: service.NewApplicationService(requests, applications, notifications, metrics, validate, logr),
		DemoClasses:  service.NewDemoClassService(demos, metrics, validate, logr),

		ReadinessChecks: map[string]handler.Pinger{
			"postgres": handler.PingFunc(db.PingContext),
		},
	}
	if redisClient != nil {
		deps.ReadinessChecks["redis"] = cacheRepo
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	notifications.Stop(shutdownCtx)
}
