package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-portal-api/api/swagger"
	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/handler"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	"github.com/noah-isme/campus-portal-api/pkg/config"
	"github.com/noah-isme/campus-portal-api/pkg/database"
	"github.com/noah-isme/campus-portal-api/pkg/export"
	"github.com/noah-isme/campus-portal-api/pkg/jobs"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	"github.com/noah-isme/campus-portal-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/campus-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-portal-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title Campus Portal API
// @version 1.0.0
// @description Audience-targeted announcements, polls, exam notices, events and forms with per-student engagement state.
// @BasePath /api/v1
// @schemes http
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "campus:", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	validate, err := service.NewValidator(cfg.Audience.Segments)
	if err != nil {
		return fmt.Errorf("register audience validation: %w", err)
	}

	announcementRepo := repository.NewAnnouncementRepository(db)
	pollRepo := repository.NewPollRepository(db)
	examRepo := repository.NewExamNoticeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	formRepo := repository.NewFormRepository(db)
	voteRepo := repository.NewPollVoteRepository(db)
	readMarkRepo := repository.NewReadMarkRepository(db)
	userRepo := repository.NewUserRepository(db)

	sender, err := mailer.New(cfg.Notifier, logr)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	if closer, ok := sender.(io.Closer); ok {
		defer closer.Close()
	}
	notifier := service.NewNotificationService(userRepo, sender, jobs.QueueConfig{
		Workers:    cfg.Notifier.Workers,
		BufferSize: cfg.Notifier.BufferSize,
		JobTimeout: 30 * time.Second,
	}, cfg.Timezone, metrics, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	pollSvc := service.NewPollService(pollRepo, voteRepo, validate, cacheSvc, metrics, logr)

	announcements := service.NewContentService[models.Announcement]("announcement", announcementRepo, validate, cacheSvc, logr)
	polls := service.NewContentService[models.Poll]("poll", pollRepo, validate, cacheSvc, logr).
		WithVisibleDecorator(pollSvc.MarkVoted)
	exams := service.NewContentService[models.ExamNotice]("exam notice", examRepo, validate, cacheSvc, logr).
		WithCreateHook(notifier.ExamNoticeCreated)
	events := service.NewContentService[models.Event]("event", eventRepo, validate, cacheSvc, logr)
	forms := service.NewContentService[models.FormLink]("form", formRepo, validate, cacheSvc, logr).
		WithVisibleDecorator(service.HideResponseLink)

	readState := service.NewReadStateService(announcements, readMarkRepo, metrics, logr)
	exportSvc := service.NewExportService(pollSvc, cfg.Timezone, logr, export.NewCSVExporter(), export.NewPDFExporter())
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Announcements: announcementRepo,
		Polls:         pollRepo,
		Exams:         examRepo,
		Events:        eventRepo,
		Forms:         formRepo,
		Users:         userRepo,
		PollDecorator: pollSvc.MarkVoted,
		Cache:         cacheSvc,
		Logger:        logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:     cfg.Dashboard.CacheTTL,
			PollStrategy: cfg.Dashboard.PollStrategy,
			RecentForms:  cfg.Dashboard.RecentForms,
			Location:     cfg.Timezone,
		},
	})
	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logr)

	if cfg.Reminders.Enabled {
		reminders := service.NewReminderService(formRepo, notifier, cfg.Reminders.Interval, cfg.Reminders.Window, cfg.Timezone, logr)
		if err := reminders.Start(); err != nil {
			return fmt.Errorf("start reminders: %w", err)
		}
		defer func() { _ = reminders.Stop() }()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(metrics, db, cacheSvc)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	content := api.Group("/content")
	registerContent(content, "announcements", announcements, logr,
		func() dto.ContentDraft[models.Announcement] { return &dto.CreateAnnouncementRequest{} },
		func() dto.ContentPatch[models.Announcement] { return &dto.UpdateAnnouncementRequest{} })
	registerContent(content, "polls", polls, logr,
		func() dto.ContentDraft[models.Poll] { return &dto.CreatePollRequest{} },
		func() dto.ContentPatch[models.Poll] { return &dto.UpdatePollRequest{} })
	registerContent(content, "exams", exams, logr,
		func() dto.ContentDraft[models.ExamNotice] { return &dto.CreateExamNoticeRequest{} },
		func() dto.ContentPatch[models.ExamNotice] { return &dto.UpdateExamNoticeRequest{} })
	registerContent(content, "events", events, logr,
		func() dto.ContentDraft[models.Event] { return &dto.CreateEventRequest{} },
		func() dto.ContentPatch[models.Event] { return &dto.UpdateEventRequest{} })
	registerContent(content, "forms", forms, logr,
		func() dto.ContentDraft[models.FormLink] { return &dto.CreateFormRequest{} },
		func() dto.ContentPatch[models.FormLink] { return &dto.UpdateFormRequest{} })

	notifications := handler.NewNotificationHandler(readState, logr)
	api.GET("/notifications", notifications.List)
	api.GET("/notifications/unread-count", notifications.UnreadCount)
	api.PATCH("/notifications/:id/read", middleware.RequireStudent(), notifications.MarkRead)

	pollHandler := handler.NewPollHandler(pollSvc, exportSvc, logr)
	api.POST("/polls/:id/vote", middleware.RequireStudent(), middleware.PerUserRateLimit(cfg.Votes.RatePerSecond, cfg.Votes.Burst), pollHandler.Vote)
	api.GET("/polls/:id/results/export", middleware.RequireAdmin(), pollHandler.ExportResults)

	api.GET("/dashboard", handler.NewDashboardHandler(dashboardSvc, logr).Stats)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func registerContent[T any, P models.ContentPtr[T]](group *gin.RouterGroup, kind string, svc *service.ContentService[T, P], logr *zap.Logger, newDraft func() dto.ContentDraft[T], newPatch func() dto.ContentPatch[T]) {
	h := handler.NewContentHandler[T](kind, svc, newDraft, newPatch, logr)
	h.Register(group, middleware.RequireAdmin(), middleware.Audit(logr, kind))
}
