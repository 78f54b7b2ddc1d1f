package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quonpass/quonpass-backend/config"
	"github.com/quonpass/quonpass-backend/internal/app/controller"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/db"
	"github.com/quonpass/quonpass-backend/internal/middleware"
	"github.com/quonpass/quonpass-backend/internal/router"
	"github.com/quonpass/quonpass-backend/internal/scheduler"
	"github.com/quonpass/quonpass-backend/internal/storage"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/quonpass/quonpass-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting QuonPass Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	conn, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	checks := map[string]controller.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// Redis is optional: without it tokens cannot be revoked early and progress is computed on every request.
	var (
		revoker   service.TokenRevoker
		blacklist middleware.TokenBlacklist
		cache     service.ProgressCache
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without blacklist and cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer client.Close()
			tokenBlacklist := redis.NewTokenBlacklist(client)
			revoker = tokenBlacklist
			blacklist = tokenBlacklist
			cache = redis.NewCache(client, "progress")
			checks["redis"] = func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}
		}
	}

	userRepo := repository.NewUserRepository(conn)
	storeRepo := repository.NewStoreRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	targetRepo := repository.NewTargetRepository(conn)
	salesRepo := repository.NewSalesRepository(conn)

	dashboardService := service.NewDashboardService(targetRepo, salesRepo, storeRepo, cache, cfg.Redis.ProgressTTL)
	targetService := service.NewTargetService(targetRepo, storeRepo, dashboardService)
	storeService := service.NewStoreService(storeRepo)
	productService := service.NewProductService(productRepo)
	salesService := service.NewSalesService(salesRepo, storeRepo, productRepo, dashboardService)
	authService := service.NewAuthService(userRepo, revoker, service.TokenConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
	})
	userService := service.NewUserService(userRepo, storeRepo)

	if cfg.Bootstrap.AdminEmail != "" {
		created, err := userService.EnsureAdmin(context.Background(), cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName)
		if err != nil {
			logger.Fatal("Failed to bootstrap admin user", err)
		}
		if created {
			logger.Info("Bootstrap admin created", map[string]interface{}{
				"email": cfg.Bootstrap.AdminEmail,
			})
		}
	}

	// S3 is optional as well; without a bucket the upload endpoints answer 503.
	var (
		presigner controller.UploadPresigner
		archiver  controller.ImportArchiver
	)
	if cfg.S3.Bucket != "" {
		s3Storage := storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
		presigner = s3Storage
		archiver = s3Storage
	}

	controllers := router.Controllers{
		Auth:      controller.NewAuthController(authService),
		User:      controller.NewUserController(userService),
		Store:     controller.NewStoreController(storeService),
		Product:   controller.NewProductController(productService, presigner),
		Target:    controller.NewTargetController(targetService),
		Sales:     controller.NewSalesController(salesService, archiver),
		Dashboard: controller.NewDashboardController(dashboardService),
		Health:    controller.NewHealthController(checks),
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)
	engine := router.NewRouter(controllers, authMiddleware, cfg).Setup()

	var progressScheduler *scheduler.ProgressScheduler
	if cfg.Scheduler.Enabled {
		progressScheduler = scheduler.NewProgressScheduler(cfg.Scheduler.ProgressRefreshCron, dashboardService)
		if err := progressScheduler.Start(); err != nil {
			logger.Fatal("Failed to start progress scheduler", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	if progressScheduler != nil {
		progressScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}

