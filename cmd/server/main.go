package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/labdesk/lab-ledger-api/internal/handler"
	"github.com/labdesk/lab-ledger-api/internal/middleware"
	"github.com/labdesk/lab-ledger-api/internal/repository"
	"github.com/labdesk/lab-ledger-api/internal/service"
	"github.com/labdesk/lab-ledger-api/internal/web"
	"github.com/labdesk/lab-ledger-api/pkg/cache"
	"github.com/labdesk/lab-ledger-api/pkg/config"
	"github.com/labdesk/lab-ledger-api/pkg/database"
	"github.com/labdesk/lab-ledger-api/pkg/logger"
	reqidmiddleware "github.com/labdesk/lab-ledger-api/pkg/middleware/requestid"
)

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

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Bootstrap(db, cfg.Database.Driver); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
			redisClient = nil
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr,
		cfg.Dashboard.CacheEnabled && redisClient != nil)

	authSvc, err := service.NewAuthService(cfg.Session, cfg.Admin, logr)
	if err != nil {
		return err
	}

	ledgerSvc := service.NewLedgerService(studentRepo, entryRepo, cacheSvc, metrics, logr, cfg.Lab.Name)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(entryRepo, studentRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)
	reportSvc := service.NewReportService(entryRepo, logr)

	entryHandler := handler.NewEntryHandler(ledgerSvc, cfg.Lab.Name)
	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(dashboardSvc, reportSvc, studentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db, cacheRepo)

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))

	r.GET("/", entryHandler.Index)
	r.POST("/entry", entryHandler.CheckIn)
	r.POST("/exit", entryHandler.CheckOut)

	r.GET("/admin/login", authHandler.LoginForm)
	r.POST("/admin/login", authHandler.Login)
	r.GET("/admin/logout", authHandler.Logout)

	admin := r.Group("/admin", middleware.AdminSession(authSvc))
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/entries", adminHandler.Entries)
		admin.GET("/students", adminHandler.Students)
		admin.POST("/students/add", adminHandler.CreateStudent)
		admin.POST("/students/delete/:id", adminHandler.DeleteStudent)
		admin.GET("/export", adminHandler.Export)
	}

	r.GET("/healthz", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting",
			"addr", srv.Addr, "env", cfg.Env, "lab", cfg.Lab.Name, "driver", cfg.Database.Driver,
			"admin", fmt.Sprintf("http://localhost:%d/admin/login", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logr.Sugar().Infow("server stopped")
	return nil
}
