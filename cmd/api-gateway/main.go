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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campussports/sportsdesk-api/api/swagger"
	"github.com/campussports/sportsdesk-api/internal/graph"
	"github.com/campussports/sportsdesk-api/internal/handler"
	"github.com/campussports/sportsdesk-api/internal/middleware"
	"github.com/campussports/sportsdesk-api/internal/repository"
	"github.com/campussports/sportsdesk-api/internal/service"
	"github.com/campussports/sportsdesk-api/pkg/cache"
	"github.com/campussports/sportsdesk-api/pkg/config"
	"github.com/campussports/sportsdesk-api/pkg/database"
	"github.com/campussports/sportsdesk-api/pkg/export"
	"github.com/campussports/sportsdesk-api/pkg/jobs"
	"github.com/campussports/sportsdesk-api/pkg/logger"
	corsmiddleware "github.com/campussports/sportsdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campussports/sportsdesk-api/pkg/middleware/requestid"
	"github.com/campussports/sportsdesk-api/pkg/storage"
)

// @title SportsDesk API
// @version 1.0.0
// @description Sports equipment borrowing and attendance service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	// repositories
	studentRepo := repository.NewStudentRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	graphClient := graph.NewClient(cfg.Graph, logr)
	authService := service.NewAuthService(graphClient, studentRepo, coachRepo, adminRepo, auditRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
	})
	txnService := service.NewTransactionService(txnRepo, studentRepo, auditRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentRepo, auditRepo, validate, logr)
	coachService := service.NewCoachService(coachRepo, studentRepo, auditRepo, validate, logr)
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	dashboardService := service.NewDashboardService(txnRepo, studentRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	noDuesService := service.NewNoDuesService(studentRepo, txnService, export.NewCertificateRenderer("College Sports Department"), logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportService *service.ReportService
	var exportService *service.ExportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService = service.NewExportService(txnRepo, attendanceRepo, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportService = service.NewReportService(reportRepo, reportQueue, exportService, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})

		reportQueue.Start(ctx)
		reportService.RecoverPendingJobs(ctx)
		reportService.StartCleanup(ctx)
	} else {
		// sync exports stay available without the background pipeline
		exportService = service.NewExportService(txnRepo, attendanceRepo, nil, storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL), service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
		}, logr, nil, nil)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Transaction: handler.NewTransactionHandler(txnService),
		Attendance:  handler.NewAttendanceHandler(attendanceService),
		Coach:       handler.NewCoachHandler(coachService),
		Dashboard:   handler.NewDashboardHandler(dashboardService, metricsService),
		NoDues:      handler.NewNoDuesHandler(noDuesService),
		Report:      handler.NewReportHandler(reportService, exportService),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, authService, handlers, cfg.Reports.Enabled)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Warn("failed to close redis", zap.Error(err))
	}
}
