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

	_ "github.com/uniboard/uniboard-api/api/swagger"
	"github.com/uniboard/uniboard-api/internal/handler"
	"github.com/uniboard/uniboard-api/internal/middleware"
	"github.com/uniboard/uniboard-api/internal/models"
	"github.com/uniboard/uniboard-api/internal/repository"
	"github.com/uniboard/uniboard-api/internal/service"
	"github.com/uniboard/uniboard-api/pkg/cache"
	"github.com/uniboard/uniboard-api/pkg/config"
	"github.com/uniboard/uniboard-api/pkg/database"
	"github.com/uniboard/uniboard-api/pkg/logger"
	corsmiddleware "github.com/uniboard/uniboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniboard/uniboard-api/pkg/middleware/requestid"
)

// @title UniBoard API
// @version 1.0.0
// @description University notice board with role-based access
// @BasePath /api
// @schemes http https

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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Redis.Enabled)
	hasher := service.NewPasswordHasher(service.DefaultBcryptCost)
	tokenSvc := service.NewTokenService(cfg.JWT)

	var attemptStore service.AttemptStore
	if cfg.RateLimit.Store == "redis" && redisClient != nil {
		attemptStore = repository.NewRedisAttemptStore(redisClient)
	} else {
		attemptStore = service.NewMemoryAttemptStore()
	}
	limiter := service.NewLoginLimiter(attemptStore, cfg.RateLimit, logr)

	authSvc := service.NewAuthService(userRepo, tokenRepo, hasher, tokenSvc, limiter, metricsSvc, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, cacheSvc, validate, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, noticeRepo, cacheSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, hasher, validate, logr)
	dashboardSvc := service.NewDashboardService(noticeRepo, applicationRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	maintenance := service.NewTokenMaintenance(tokenRepo, cfg.Tokens.PurgeInterval, logr)
	maintenance.Start(context.Background())
	defer maintenance.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, cfg.JWT, cfg.Env)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	adminHandler := handler.NewAdminHandler(userSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "database"})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authenticate := middleware.Authenticate(tokenSvc, userRepo)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authenticate, authHandler.Me)
		}

		notices := api.Group("/notices", authenticate)
		{
			notices.GET("", noticeHandler.List)
			notices.GET("/:id", noticeHandler.Get)
			notices.POST("", middleware.RequireRole(models.RoleAdmin), noticeHandler.Create)
			notices.PUT("/:id", middleware.RequireRole(models.RoleAdmin), noticeHandler.Update)
			notices.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), noticeHandler.Delete)
		}

		applications := api.Group("/applications", authenticate)
		{
			applications.POST("", middleware.RequireRole(models.RoleStudent), applicationHandler.Submit)
			applications.GET("", applicationHandler.List)
			applications.GET("/export", middleware.RequireRole(models.RoleAdmin), applicationHandler.Export)
			applications.GET("/:id", applicationHandler.Get)
			applications.PUT("/:id/approve", middleware.RequireRole(models.RoleAdmin), applicationHandler.Approve)
			applications.PUT("/:id/reject", middleware.RequireRole(models.RoleAdmin), applicationHandler.Reject)
		}

		admin := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleSuperAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateAdmin)
			admin.PUT("/users/:id/role", adminHandler.UpdateRole)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
		}

		dashboard := api.Group("/dashboard", authenticate)
		{
			dashboard.GET("/student", middleware.RequireRole(models.RoleStudent), dashboardHandler.Student)
			dashboard.GET("/admin", middleware.RequireRole(models.RoleAdmin), dashboardHandler.Admin)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
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

	logr.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
