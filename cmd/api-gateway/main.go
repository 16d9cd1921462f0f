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

	"github.com/go-playground/validator/v10"

	_ "github.com/mowamiyya/leaveMangement/api/swagger"
	"github.com/mowamiyya/leaveMangement/internal/handler"
	"github.com/mowamiyya/leaveMangement/internal/repository"
	"github.com/mowamiyya/leaveMangement/internal/router"
	"github.com/mowamiyya/leaveMangement/internal/service"
	"github.com/mowamiyya/leaveMangement/pkg/cache"
	"github.com/mowamiyya/leaveMangement/pkg/config"
	"github.com/mowamiyya/leaveMangement/pkg/database"
	"github.com/mowamiyya/leaveMangement/pkg/logger"
	"github.com/mowamiyya/leaveMangement/pkg/storage"
)

// @title Leave Management API
// @version 1.0.0
// @description Leave application workflow with role based access control
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	leaveStatusRepo := repository.NewLeaveStatusRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	classTeacherRepo := repository.NewClassTeacherRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	resetCodeRepo := repository.NewResetCodeRepository(redisClient, cfg.ResetCode.TTL)
	refreshTokenRepo := repository.NewRefreshTokenRepository(redisClient, cfg.JWT.RefreshExpiration)
	cacheRepo := repository.NewCacheRepository(redisClient)

	tokenSvc := service.NewTokenService(logr, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, classRepo, departmentRepo, resetCodeRepo, refreshTokenRepo, auditRepo, tokenSvc, validate, logr, cfg.JWT.Expiration)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, classTeacherRepo, validate, logr, service.LeaveConfig{
		ValidateDateRange: cfg.Leaves.ValidateDateRange,
	})
	adminSvc := service.NewAdminService(departmentRepo, classRepo, userRepo, classTeacherRepo, validate, logr)
	hierarchySvc := service.NewHierarchyService(departmentRepo, classRepo, userRepo, logr)
	dashboardSvc := service.NewDashboardService(leaveRepo, cacheRepo, logr, cfg.Dashboard.CacheTTL)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
	archiveSvc := service.NewExportArchiveService(exportStore, exportSigner, logr, service.ExportArchiveConfig{
		Workers:   cfg.Exports.Workers,
		LinkTTL:   cfg.Exports.LinkTTL,
		Retention: cfg.Exports.Retention,
	})
	archiveCtx, stopArchive := context.WithCancel(context.Background())
	archiveSvc.Start(archiveCtx)
	defer func() {
		stopArchive()
		archiveSvc.Stop()
	}()

	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Leave:       handler.NewLeaveHandler(leaveSvc, metricsSvc, archiveSvc),
		LeaveStatus: handler.NewLeaveStatusHandler(leaveStatusRepo),
		Admin:       handler.NewAdminHandler(adminSvc),
		Hierarchy:   handler.NewHierarchyHandler(hierarchySvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Settings:    handler.NewSettingsHandler(settingsSvc),
		Audit:       handler.NewAuditHandler(auditSvc),
	}

	engine := router.New(cfg, logr, tokenSvc, metricsSvc, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
