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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/scorpionabid/infoline-edu-hub-sub004/api/swagger"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/handler"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/middleware"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/repository"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/service"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/cache"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/config"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/database"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/jobs"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/logger"
	corsmiddleware "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/middleware/cors"
	reqidmiddleware "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/middleware/requestid"
)

// @title InfoLine Education Hub API
// @version 1.0.0
// @description Status transition and approval workflow for school data collection
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Workflow.AuthorityCacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "infoline-edu-hub",
	})

	authoritySvc := service.NewAuthorityService(orgRepo, cacheSvc, logr)
	preconditionSvc := service.NewPreconditionService(entryRepo, logr)
	historySvc := service.NewHistoryService(historyRepo, cacheSvc, metricsSvc, logr,
		cfg.Workflow.HistoryFallback, cfg.Workflow.HistoryDefaultLimit, cfg.Workflow.StatisticsCacheTTL)

	notificationSvc := service.NewNotificationService(notificationRepo, orgRepo, metricsSvc, logr, cfg.Notifications.Enabled)
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc.BindQueue(notificationQueue)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	notificationQueue.Start(queueCtx)
	defer notificationQueue.Stop()

	statusSvc := service.NewStatusService(entryRepo, authoritySvc, preconditionSvc, historySvc,
		notificationSvc, userRepo, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	statusHandler := handler.NewStatusHandler(statusSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	entries := protected.Group("/entries/:schoolID/categories/:categoryID")
	entries.GET("/status", statusHandler.GetStatus)
	entries.GET("/actions", statusHandler.GetActions)
	entries.POST("/validate", statusHandler.Validate)
	entries.PUT("/status", statusHandler.Transition)
	entries.GET("/history", historyHandler.GetHistory)

	history := protected.Group("/status-history")
	history.Use(middleware.RequireRoles(models.RoleSectorAdmin, models.RoleRegionAdmin, models.RoleSuperAdmin))
	history.Use(middleware.Audit(userRepo, models.AuditActionLedgerAccess, "status_transition_log"))
	history.GET("", historyHandler.ListHistory)
	history.GET("/statistics", historyHandler.Statistics)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
