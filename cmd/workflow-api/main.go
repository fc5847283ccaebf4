package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-request-workflow/api/swagger"
	"github.com/noah-isme/sma-request-workflow/internal/handler"
	"github.com/noah-isme/sma-request-workflow/internal/notifier"
	"github.com/noah-isme/sma-request-workflow/internal/repository"
	"github.com/noah-isme/sma-request-workflow/internal/service"
	"github.com/noah-isme/sma-request-workflow/migrations"
	"github.com/noah-isme/sma-request-workflow/pkg/cache"
	"github.com/noah-isme/sma-request-workflow/pkg/config"
	"github.com/noah-isme/sma-request-workflow/pkg/database"
	"github.com/noah-isme/sma-request-workflow/pkg/jobs"
	"github.com/noah-isme/sma-request-workflow/pkg/logger"
	"github.com/noah-isme/sma-request-workflow/pkg/mq"
)

// @title Request Workflow API
// @version 1.0.0
// @description Exam-access and lesson request approval workflow
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		if version, err := database.SchemaVersion(ctx, db); err == nil {
			logr.Info("schema ready", zap.Int64("version", version))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
		redisClient = nil
	}

	var notificationSvc *service.NotificationService
	metrics := service.NewMetricsService(func() int { return notificationSvc.Pending() })

	rosterOpts := []service.RosterServiceOption{}
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		rosterOpts = append(rosterOpts, service.WithRosterCache(cacheRepo, cfg.Roster.CacheTTL))
	}
	roster := service.NewRosterService(repository.NewRosterRepository(db), metrics, logr, rosterOpts...)

	sink, closeSink := buildNotifier(cfg.Notifications, logr)
	defer closeSink()
	notificationSvc = service.NewNotificationService(sink, metrics, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	notificationSvc.Start(context.Background())

	validate := validator.New()
	history := repository.NewTransitionRepository(db)
	examSvc := service.NewExamRequestService(repository.NewExamRequestRepository(db), history, roster, notificationSvc, metrics, validate, logr)
	lessonSvc := service.NewLessonRequestService(repository.NewLessonRequestRepository(db), history, roster, notificationSvc, metrics, validate, logr)

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := newRouter(routerDeps{
		apiPrefix:      cfg.APIPrefix,
		allowedOrigins: cfg.CORS.AllowedOrigins,
		requestTimeout: cfg.RequestTimeout,
		enableDocs:     cfg.Env != config.EnvProduction,
		logger:         logr,
		metrics:        metrics,
		identity:       service.NewIdentityService(cfg.JWT.Secret),
		exams:          handler.NewExamRequestHandler(examSvc),
		lessons:        handler.NewLessonRequestHandler(lessonSvc),
		probes:         handler.NewMetricsHandler(metrics, deps),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	notificationSvc.Stop(shutdownCtx)
}

// buildNotifier picks the delivery channel. An unreachable broker falls back
// to the log channel so the workflow keeps serving.
func buildNotifier(cfg config.NotificationsConfig, logr *zap.Logger) (notifier.Notifier, func()) {
	if cfg.Driver != config.NotifyDriverAMQP {
		return notifier.NewLogNotifier(logr), func() {}
	}
	publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logr.Warn("amqp unavailable, notifications go to the log", zap.Error(err))
		return notifier.NewLogNotifier(logr), func() {}
	}
	logr.Info("notifications published to amqp", zap.String("exchange", cfg.AMQPExchange))
	return notifier.NewAMQPNotifier(publisher), func() {
		if err := publisher.Close(); err != nil {
			logr.Warn("amqp close failed", zap.Error(err))
		}
	}
}
