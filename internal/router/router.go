package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/controller"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type Router struct {
	authController         *controller.AuthController
	adminController        *controller.AdminController
	businessController     *controller.BusinessController
	subscriptionController *controller.SubscriptionController
	paymentController      *controller.PaymentController
	tagController          *controller.TagController
	tagPairController      *controller.TagPairController
	notificationController *controller.NotificationController
	reviewController       *controller.ReviewController
	uploadController       *controller.UploadController
	authMiddleware         *middleware.AuthMiddleware
	subService             *service.SubscriptionService
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	adminController *controller.AdminController,
	businessController *controller.BusinessController,
	subscriptionController *controller.SubscriptionController,
	paymentController *controller.PaymentController,
	tagController *controller.TagController,
	tagPairController *controller.TagPairController,
	notificationController *controller.NotificationController,
	reviewController *controller.ReviewController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	subService *service.SubscriptionService,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		adminController:        adminController,
		businessController:     businessController,
		subscriptionController: subscriptionController,
		paymentController:      paymentController,
		tagController:          tagController,
		tagPairController:      tagPairController,
		notificationController: notificationController,
		reviewController:       reviewController,
		uploadController:       uploadController,
		authMiddleware:         authMiddleware,
		subService:             subService,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "TapReview API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Public surface: review submission from a customer's phone and the
		// checkout callback from the payment widget.
		public := v1.Group("/public")
		{
			public.POST("/businesses/:id/reviews", r.reviewController.Create)
			public.GET("/businesses/:id/reviews/stats", r.reviewController.Stats)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		admins := v1.Group("/admins")
		admins.Use(r.authMiddleware.Authenticate())
		{
			admins.POST("",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin),
				r.authController.CreateAdmin,
			)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate())
		{
			admin.GET("/dashboard", r.adminController.GetDashboard)
			admin.GET("/audit-logs", r.adminController.ListAuditLogs)
		}

		businesses := v1.Group("/businesses")
		businesses.Use(r.authMiddleware.Authenticate())
		{
			businesses.POST("", r.businessController.Register)
			businesses.GET("", r.businessController.List)
			businesses.GET("/:id", r.businessController.Get)
			businesses.PUT("/:id", r.businessController.Update)
			businesses.DELETE("/:id",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.businessController.Delete,
			)

			businesses.GET("/:id/subscription", r.subscriptionController.GetStatus)
			businesses.GET("/:id/payments", r.paymentController.ListPayments)

			// Reviews are the paid surface: reading them requires a live
			// subscription for the business.
			businesses.GET("/:id/reviews",
				middleware.RequireActiveSubscription(r.subService),
				r.reviewController.List,
			)
			businesses.GET("/:id/reviews/stats",
				middleware.RequireActiveSubscription(r.subService),
				r.reviewController.Stats,
			)
		}

		subscriptions := v1.Group("/subscriptions")
		subscriptions.Use(r.authMiddleware.Authenticate())
		{
			subscriptions.GET("/plans", r.subscriptionController.ListPlans)
			subscriptions.POST("/calculate-price", r.subscriptionController.CalculatePrice)
		}

		coupons := v1.Group("/coupons")
		coupons.Use(r.authMiddleware.Authenticate())
		{
			coupons.GET("", r.subscriptionController.ListCoupons)
			coupons.POST("",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.subscriptionController.CreateCoupon,
			)
			coupons.PUT("/:code/active",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.subscriptionController.SetCouponActive,
			)
			coupons.GET("/:code/usages", r.subscriptionController.ListCouponUsages)
		}

		payments := v1.Group("/payments")
		payments.Use(r.authMiddleware.Authenticate())
		{
			payments.POST("/orders", r.paymentController.CreateOrder)
			payments.POST("/verify", r.paymentController.Verify)
		}

		tags := v1.Group("/tags")
		tags.Use(r.authMiddleware.Authenticate())
		{
			tags.GET("", r.tagController.List)
			tags.GET("/stats", r.tagController.Stats)
			tags.GET("/export", r.tagController.Export)
			tags.POST("", r.tagController.Create)
			tags.POST("/bulk", r.tagController.BulkCreate)
			tags.GET("/:tag_id", r.tagController.Get)
			tags.GET("/:tag_id/history", r.tagController.History)
			tags.POST("/:tag_id/assign", r.tagController.Assign)
			tags.POST("/:tag_id/unassign", r.tagController.Unassign)
			tags.POST("/:tag_id/activate", r.tagController.Activate)
			tags.POST("/:tag_id/scrap", r.tagController.Scrap)
			tags.POST("/:tag_id/reset",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.tagController.Reset,
			)
		}

		pairs := v1.Group("/tag-pairs")
		pairs.Use(r.authMiddleware.Authenticate())
		{
			pairs.GET("", r.tagPairController.List)
			pairs.GET("/stats", r.tagPairController.Stats)
			pairs.POST("", r.tagPairController.Create)
			pairs.POST("/bulk", r.tagPairController.BulkCreate)
			pairs.GET("/:pair_id", r.tagPairController.Get)
			pairs.GET("/:pair_id/activity", r.tagPairController.ActivityLog)
			pairs.POST("/:pair_id/assign", r.tagPairController.Assign)
			pairs.POST("/:pair_id/reassign", r.tagPairController.Reassign)
			pairs.POST("/:pair_id/activate", r.tagPairController.Activate)
			pairs.POST("/:pair_id/deactivate", r.tagPairController.Deactivate)
			pairs.PUT("/:pair_id/notes", r.tagPairController.UpdateNotes)
			pairs.DELETE("/:pair_id",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.tagPairController.Delete,
			)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.List)
			notifications.GET("/unread-count", r.notificationController.UnreadCount)
			notifications.GET("/business-alerts", r.notificationController.BusinessAlerts)
			notifications.PUT("/:id/read", r.notificationController.MarkRead)
			notifications.PUT("/read-all", r.notificationController.MarkAllRead)
			notifications.POST("/sweep",
				r.authMiddleware.RequireRole(model.AdminRoleSuperAdmin, model.AdminRoleAdmin),
				r.notificationController.RunSweep,
			)
		}

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
