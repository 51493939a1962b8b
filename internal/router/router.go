package router

import (
	"time"

	"learnly/config"
	"learnly/internal/domain"
	"learnly/internal/handler"
	"learnly/internal/middleware"
	"learnly/internal/repository"
	"learnly/internal/service"
	"learnly/internal/ws"
	"learnly/pkg/cloudinary"
	"learnly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers and returns the engine plus
// the pending-intent sweeper for main to schedule.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, *service.PendingSweeper) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	intentRepo := repository.NewPaymentIntentRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	hub := ws.NewHub()

	// Payment providers
	cardProvider := payment.NewStripeProvider(cfg.Stripe.SecretKey)
	localProvider := payment.NewRazorpayProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	providers := map[string]payment.Provider{
		domain.ProviderCard:  cardProvider,
		domain.ProviderLocal: localProvider,
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	mailSvc := service.NewMailService(&cfg.Mail)
	enrollSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, mailSvc, hub)
	checkoutSvc := service.NewCheckoutService(cfg, courseRepo, enrollmentRepo, intentRepo, userRepo, enrollSvc, providers)
	sweeper := service.NewPendingSweeper(intentRepo, enrollSvc, providers, cfg.Checkout.PendingSweepAfter)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	courseHandler := handler.NewCourseHandler(courseRepo, categoryRepo, enrollmentRepo)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	verifyHandler := handler.NewVerifyHandler(intentRepo, enrollSvc, cardProvider, localProvider)
	webhookHandler := handler.NewCardWebhookHandler(cfg, intentRepo, enrollSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentRepo, intentRepo)
	progressHandler := handler.NewProgressHandler(progressRepo, courseRepo, enrollmentRepo, enrollSvc)
	adminHandler := handler.NewAdminCourseHandler(courseRepo, categoryRepo, intentRepo, userRepo, enrollSvc)
	uploadHandler := handler.NewUploadHandler(cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)
	checkoutLimiter := middleware.NewInMemoryRateLimiter(10, 60*time.Second)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}
		api.GET("/me", authMw, authHandler.Me)

		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:slug", courseHandler.Get)
		api.GET("/categories", courseHandler.ListCategories)

		api.POST("/checkout", authMw, middleware.RateLimitByUser(checkoutLimiter), checkoutHandler.Start)
		api.POST("/checkout/verify/card", authMw, verifyHandler.VerifyCard)
		api.POST("/checkout/verify/local", authMw, verifyHandler.VerifyLocal)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/enrollments", enrollmentHandler.ListMine)
			me.GET("/purchases", enrollmentHandler.Purchases)
			me.POST("/progress", progressHandler.Save)
			me.GET("/progress/:course_id", progressHandler.Course)
		}

		instructor := api.Group("/instructor")
		instructor.Use(authMw, middleware.RequireRole(domain.RoleInstructor, domain.RoleAdmin))
		{
			instructor.GET("/courses", adminHandler.ListOwn)
			instructor.POST("/courses", adminHandler.CreateCourse)
			instructor.PUT("/courses/:id", adminHandler.UpdateCourse)
			instructor.PATCH("/courses/:id/publish", adminHandler.Publish)
			instructor.POST("/courses/:id/sections", adminHandler.CreateSection)
			instructor.PUT("/courses/:id/sections/reorder", adminHandler.ReorderSections)
			instructor.PUT("/sections/:section_id", adminHandler.UpdateSection)
			instructor.DELETE("/sections/:section_id", adminHandler.DeleteSection)
			instructor.POST("/sections/:section_id/lessons", adminHandler.CreateLesson)
			instructor.PUT("/sections/:section_id/lessons/reorder", adminHandler.ReorderLessons)
			instructor.PUT("/lessons/:lesson_id", adminHandler.UpdateLesson)
			instructor.DELETE("/lessons/:lesson_id", adminHandler.DeleteLesson)
			instructor.POST("/uploads/thumbnail", uploadHandler.UploadThumbnail)
			instructor.POST("/uploads/video", uploadHandler.UploadVideo)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.POST("/enrollments", adminHandler.GrantEnrollment)
			admin.GET("/payments", adminHandler.ListIntents)
		}

		api.POST("/webhooks/card", webhookHandler.Handle)
	}

	r.GET("/ws/learn", handler.ProgressWS(&cfg.JWT, hub, courseRepo, enrollmentRepo, progressRepo, enrollSvc))

	return r, sweeper
}
