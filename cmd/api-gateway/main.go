package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/specreg-bridge/api/swagger"
	"github.com/noah-isme/specreg-bridge/internal/handler"
	"github.com/noah-isme/specreg-bridge/internal/middleware"
	"github.com/noah-isme/specreg-bridge/internal/models"
	"github.com/noah-isme/specreg-bridge/internal/repository"
	"github.com/noah-isme/specreg-bridge/internal/service"
	"github.com/noah-isme/specreg-bridge/internal/specreg"
	"github.com/noah-isme/specreg-bridge/pkg/cache"
	"github.com/noah-isme/specreg-bridge/pkg/config"
	"github.com/noah-isme/specreg-bridge/pkg/database"
	"github.com/noah-isme/specreg-bridge/pkg/jobs"
	"github.com/noah-isme/specreg-bridge/pkg/logger"
	corsmiddleware "github.com/noah-isme/specreg-bridge/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/specreg-bridge/pkg/middleware/requestid"
	"github.com/noah-isme/specreg-bridge/pkg/storage"
)

// @title SpecReg Bridge API
// @version 0.1.0
// @description Course request validation and override bridge for the special registration site
// @BasePath /
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
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	studentRepo := repository.NewStudentRepository(db)
	requestRepo := repository.NewCourseRequestRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)

	client := specreg.NewClient(cfg.SpecReg, logr)

	metrics := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	}
	validationSvc := service.NewValidationService(client, offeringRepo, studentRepo, requestRepo, metrics, cfg.Sections, cfg.SpecReg, validator.New(), logr)
	reconcileSvc := service.NewReconcileService(client, studentRepo, requestRepo, offeringRepo, cacheSvc, metrics, cfg.Batch.Size, logr)
	eligibilitySvc := service.NewEligibilityService(client, studentRepo, offeringRepo, cacheSvc, metrics, logr)
	var archive *storage.LocalStorage
	if cfg.Reports.ArchiveDir != "" {
		archive, err = storage.NewLocalStorage(cfg.Reports.ArchiveDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare report archive", "error", err)
		}
	}
	reportSvc := service.NewReportService(requestRepo, archive, cfg.Reports.Enabled, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	revalidations := jobs.NewQueue("revalidations", service.RevalidationJobHandler(validationSvc, logr), jobs.QueueConfig{
		Workers:    cfg.Sections.RevalidationWorkers,
		MaxRetries: cfg.Sections.RevalidationRetries,
		Logger:     logr,
	})
	revalidations.Start(ctx)
	defer revalidations.Stop()

	validationHandler := handler.NewValidationHandler(validationSvc)
	reconcileHandler := handler.NewReconcileHandler(reconcileSvc, revalidations)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	api.Use(middleware.RequireEnabled(cfg.SpecReg.Enabled, "special registration integration is disabled"))

	api.POST("/validations", validationHandler.Validate)
	api.POST("/validations/submit", validationHandler.Submit)
	api.POST("/validations/check", validationHandler.Check)
	api.GET("/eligibility/:studentId", middleware.RBAC("ADMIN", "ADVISOR", "SELF"), eligibilityHandler.Check)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleAdvisor)
	api.POST("/reconciliations/:studentId", staff, reconcileHandler.Reconcile)
	api.POST("/reconciliations", staff, reconcileHandler.BatchReconcile)
	api.POST("/revalidations/:studentId", staff, reconcileHandler.Revalidate)
	api.GET("/overrides/report", staff, reportHandler.OverrideReport)

	var scheduler *cron.Cron
	if cfg.Batch.Enabled && cfg.Batch.TermID > 0 {
		scheduler = cron.New(cron.WithSeconds())
		_, err := scheduler.AddFunc(cfg.Batch.CronSpec, func() {
			result, err := reconcileSvc.UpdateStudents(context.Background(), cfg.Batch.TermID, nil)
			if err != nil {
				logr.Sugar().Errorw("scheduled reconciliation failed", "error", err)
				return
			}
			logr.Sugar().Infow("scheduled reconciliation finished",
				"examined", result.Examined, "batches", result.Batches, "changed", len(result.Changed))
		})
		if err != nil {
			logr.Sugar().Fatalw("invalid batch cron spec", "spec", cfg.Batch.CronSpec, "error", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
