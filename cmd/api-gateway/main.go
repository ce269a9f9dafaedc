package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/committee-api/api/swagger"
	"github.com/noah-isme/committee-api/internal/handler"
	"github.com/noah-isme/committee-api/internal/middleware"
	"github.com/noah-isme/committee-api/internal/repository"
	"github.com/noah-isme/committee-api/internal/service"
	"github.com/noah-isme/committee-api/pkg/cache"
	"github.com/noah-isme/committee-api/pkg/config"
	"github.com/noah-isme/committee-api/pkg/database"
	"github.com/noah-isme/committee-api/pkg/jobs"
	"github.com/noah-isme/committee-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/committee-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/committee-api/pkg/middleware/requestid"
	"github.com/noah-isme/committee-api/pkg/storage"
)

// @title Committee API
// @version 1.0.0
// @description Committee lifecycle and role transition engine
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, archive caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Fatal("failed to prepare export directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SignSecret, cfg.Export.URLTTL)

	// Repositories.
	adminRepo := repository.NewAdminRepository(db)
	userRepo := repository.NewUserRepository(db)
	designationRepo := repository.NewDesignationRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	roleChangeLogRepo := repository.NewRoleChangeLogRepository(db)
	committeeRepo := repository.NewCommitteeRepository(db)
	previousRepo := repository.NewPreviousCommitteeRepository(db)

	// Services.
	metricsService := service.NewMetricsService()
	var cacheService *service.CacheService
	if redisClient != nil && cfg.Committee.CacheEnabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Committee.ArchiveCacheTTL, logr, true)
	}

	authService := service.NewAuthService(adminRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	designationService := service.NewDesignationService(designationRepo, nil, logr)
	roleService := service.NewRoleService(applicationRepo, userRepo, designationRepo, roleChangeLogRepo, nil, logr)
	committeeService := service.NewCommitteeService(committeeRepo, previousRepo, userRepo, cacheService, metricsService, nil, logr, service.CommitteeConfig{
		ConfirmationToken: cfg.Committee.ConfirmationToken,
		ArchiveCacheTTL:   cfg.Committee.ArchiveCacheTTL,
	})
	exportService := service.NewExportService(committeeRepo, previousRepo, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Export.ResultTTL,
	}, logr, nil, nil)

	// Expired export files are swept in the background.
	cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := exportService.Cleanup()
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			logr.Info("expired exports removed", zap.Int("count", len(removed)))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = cleanupQueue.Enqueue(jobs.Job{Type: "cleanup"})
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	designationHandler := handler.NewDesignationHandler(designationService)
	roleHandler := handler.NewRoleHandler(roleService)
	committeeHandler := handler.NewCommitteeHandler(committeeService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/export/:token", exportHandler.Download)

	// Public committee views.
	api.GET("/committee/current", committeeHandler.Current)
	api.GET("/committee/previous", committeeHandler.ListPrevious)
	api.GET("/committee/previous/:number", committeeHandler.GetPrevious)

	admin := api.Group("")
	admin.Use(middleware.JWT(authService))
	admin.Use(middleware.RequestLog(logr))
	{
		admin.GET("/auth/me", authHandler.Me)
		admin.GET("/metrics/summary", metricsHandler.Snapshot)

		admin.GET("/designations", designationHandler.List)
		admin.POST("/designations", designationHandler.Create)
		admin.GET("/designations/:id", designationHandler.Get)
		admin.PUT("/designations/:id", designationHandler.Update)
		admin.DELETE("/designations/:id", designationHandler.Delete)

		admin.GET("/roles/applications/executive", roleHandler.ListExecutiveApplications)
		admin.POST("/roles/applications/executive/:id/approve", roleHandler.ApproveExecutive)
		admin.POST("/roles/applications/executive/:id/reject", roleHandler.RejectExecutive)
		admin.POST("/roles/applications/volunteer/:id/approve", roleHandler.ApproveVolunteer)
		admin.POST("/roles/applications/volunteer/:id/reject", roleHandler.RejectVolunteer)
		admin.PUT("/roles/users/:id", roleHandler.UpdateUserRole)
		admin.GET("/roles/executives/export", exportHandler.ExportCurrent)
		admin.GET("/roles/users/:id/history", roleHandler.RoleHistory)
		admin.GET("/roles/stats", roleHandler.Stats)

		admin.GET("/committee/current/roster", committeeHandler.Roster)
		admin.POST("/committee/publish", committeeHandler.Publish)
		admin.POST("/committee/current/members", committeeHandler.AddMember)
		admin.PUT("/committee/current/reorder", committeeHandler.Reorder)
		admin.PUT("/committee/current/members/:id/order", committeeHandler.UpdateMemberOrder)
		admin.DELETE("/committee/current/members/:id", committeeHandler.RemoveMember)
		admin.POST("/committee/end-tenure", committeeHandler.EndTenure)
		admin.GET("/committee/stats", committeeHandler.Stats)

		admin.GET("/committee/current/export", exportHandler.ExportCurrent)
		admin.GET("/committee/previous/:number/export", exportHandler.ExportPrevious)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
