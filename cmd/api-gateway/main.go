package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studyhall/planner-api/api/swagger"
	"github.com/studyhall/planner-api/internal/handler"
	"github.com/studyhall/planner-api/internal/middleware"
	"github.com/studyhall/planner-api/internal/repository"
	"github.com/studyhall/planner-api/internal/service"
	"github.com/studyhall/planner-api/pkg/cache"
	"github.com/studyhall/planner-api/pkg/config"
	"github.com/studyhall/planner-api/pkg/database"
	"github.com/studyhall/planner-api/pkg/jobs"
	"github.com/studyhall/planner-api/pkg/logger"
	corsmiddleware "github.com/studyhall/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyhall/planner-api/pkg/middleware/requestid"
	"github.com/studyhall/planner-api/pkg/storage"
)

// @title Study Planner API
// @version 1.0.0
// @description Weekly study plan generation and management
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
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	planRepo := repository.NewPlanRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Planner.CacheTTL, logr, cfg.Planner.CacheEnabled && redisClient != nil)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	taskService := service.NewTaskService(taskRepo, cacheService, validate, logr)
	prefService := service.NewPreferenceService(prefRepo, cacheService, validate, logr)
	planService := service.NewPlanService(taskRepo, prefRepo, planRepo, cacheService, metricsService, db, validate, logr, service.PlanServiceConfig{
		ProposalTTL: cfg.Planner.ProposalTTL,
		CacheTTL:    cfg.Planner.CacheTTL,
	})

	localStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(planRepo, localStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exportJobService *service.ExportJobService
	if cfg.Exports.Enabled {
		jobStore := service.NewExportJobStore()
		worker := service.NewExportWorker(jobStore, exportService, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("plan-exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		exportJobService = service.NewExportJobService(jobStore, planRepo, queue, exportService, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobService.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	prefHandler := handler.NewPreferenceHandler(prefService)
	planHandler := handler.NewPlanHandler(planService, exportJobService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
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
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	protected.POST("/tasks", taskHandler.Create)
	protected.GET("/tasks", taskHandler.List)
	protected.GET("/tasks/:id", taskHandler.Get)
	protected.PUT("/tasks/:id", taskHandler.Update)
	protected.DELETE("/tasks/:id", taskHandler.Delete)

	protected.GET("/preferences", prefHandler.Get)
	protected.PUT("/preferences", prefHandler.Put)

	protected.POST("/plans/generate", planHandler.Generate)
	protected.POST("/plans", planHandler.Save)
	protected.GET("/plans", planHandler.List)
	protected.GET("/plans/:id", planHandler.Get)
	protected.DELETE("/plans/:id", planHandler.Delete)

	if cfg.Exports.Enabled {
		protected.POST("/plans/export", planHandler.Export)
		protected.GET("/plans/export/status/:id", planHandler.ExportStatus)
		// Token-authenticated, no JWT required.
		api.GET("/plans/export/:token", planHandler.Download)
	}

	protected.GET("/metrics/status", middleware.RBAC("ADMIN"), metricsHandler.Status)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
