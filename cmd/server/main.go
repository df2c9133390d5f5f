package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/controller"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/tapreview/tapreview-backend/internal/middleware"
	"github.com/tapreview/tapreview-backend/internal/router"
	"github.com/tapreview/tapreview-backend/internal/scheduler"
	"github.com/tapreview/tapreview-backend/internal/storage"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"github.com/tapreview/tapreview-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console",
		EnableColor: true,
	})

	logger.Info("Starting TapReview Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is a session cache; the server runs fine without it.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, session cache disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	// Repositories
	adminRepo := repository.NewAdminRepository(db.GetDB())
	auditRepo := repository.NewAuditLogRepository(db.GetDB())
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	subRepo := repository.NewSubscriptionRepository(db.GetDB())
	couponRepo := repository.NewCouponRepository(db.GetDB())
	paymentRepo := repository.NewPaymentRepository(db.GetDB())
	tagRepo := repository.NewTagRepository(db.GetDB())
	pairRepo := repository.NewTagPairRepository(db.GetDB())
	notificationRepo := repository.NewNotificationRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	// Services
	subService := service.NewSubscriptionService(businessRepo, subRepo, couponRepo, db.GetDB())
	paymentService, err := service.NewPaymentService(paymentRepo, subService, cfg, db.GetDB())
	if err != nil {
		logger.Fatal("Failed to initialize payment service", err)
	}
	adminService := service.NewAdminService(adminRepo, auditRepo, businessRepo, subRepo, tagRepo, pairRepo, notificationRepo, cfg.JWT)
	businessService := service.NewBusinessService(businessRepo, pairRepo, subService)
	tagService := service.NewTagService(tagRepo, businessRepo)
	pairService := service.NewTagPairService(pairRepo, businessRepo)
	reviewService := service.NewReviewService(reviewRepo, businessRepo)
	notificationService := service.NewNotificationService(
		notificationRepo, businessRepo, subRepo, tagRepo, subService,
		cfg.Scheduler.ExpiryWarningDays,
	)

	s3Storage := storage.NewS3Storage(cfg.S3)

	// Controllers
	authController := controller.NewAuthController(adminService)
	adminController := controller.NewAdminController(adminService)
	businessController := controller.NewBusinessController(businessService, adminService)
	subscriptionController := controller.NewSubscriptionController(subService, adminService)
	paymentController := controller.NewPaymentController(paymentService)
	tagController := controller.NewTagController(tagService, adminService)
	tagPairController := controller.NewTagPairController(pairService, adminService)
	notificationController := controller.NewNotificationController(notificationService)
	reviewController := controller.NewReviewController(reviewService)
	uploadController := controller.NewUploadController(s3Storage)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, adminService)

	r := router.NewRouter(
		authController,
		adminController,
		businessController,
		subscriptionController,
		paymentController,
		tagController,
		tagPairController,
		notificationController,
		reviewController,
		uploadController,
		authMiddleware,
		subService,
		cfg,
	)
	engine := r.Setup()

	// Background sweep: expiry flips and admin alerts.
	alertScheduler := scheduler.NewAlertScheduler(notificationService, cfg.Scheduler.AlertSweepSpec)
	if err := alertScheduler.Start(); err != nil {
		logger.Fatal("Failed to start alert scheduler", err)
	}
	defer alertScheduler.Stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
