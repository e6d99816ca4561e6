package routes

import (
	"time"

	"dao-tracker-backend/internal/api/handlers"
	"dao-tracker-backend/internal/api/middleware"
	"dao-tracker-backend/internal/auth"
	"dao-tracker-backend/internal/config"
	"dao-tracker-backend/internal/repository"
	"dao-tracker-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRoutes configures all the routes for the application. db is nil
// when the startup probe selected the in-memory store. The dossier
// service is returned so the bootstrap can drive the deadline ticker.
func SetupRoutes(db *mongo.Database, cfg *config.Config) (*gin.Engine, service.DaoServiceInterface, error) {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg))

	validate := validator.New()

	// Initialize repositories behind the mode decided by the probe
	stores := repository.New(db)
	allocator := repository.NewSequenceAllocator(stores.Daos)

	// Initialize auth
	authService, err := auth.NewService(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TokenTTL: time.Duration(cfg.JWTTTLHours) * time.Hour,
	}, stores.Users, stores.Credentials)
	if err != nil {
		return nil, nil, err
	}
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	// Initialize services
	notificationService := service.NewNotificationService()
	emailService := service.NewEmailService(service.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	daoService := service.NewDaoService(stores.Daos, allocator, notificationService, emailService, validate)
	userService := service.NewUserService(stores.Users, stores.Credentials, authService, notificationService, validate)
	commentService := service.NewCommentService(stores.Comments, stores.Daos, notificationService, validate)

	idempotency := middleware.NewIdempotencyCache(time.Duration(cfg.IdempotencyTTLSec) * time.Second)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, stores.Mode)
	daoHandler := handlers.NewDaoHandler(daoService)
	userHandler := handlers.NewUserHandler(userService)
	commentHandler := handlers.NewCommentHandler(commentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(daoService, commentService, notificationService, authService, idempotency)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	api := router.Group("/api")

	// Auth routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authMiddleware.RequireAuth(), authHandler.Logout)
		authRoutes.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(idempotency.Handler())
	{
		// Dossier routes
		daos := protected.Group("/dao")
		{
			daos.GET("", daoHandler.ListDaos)
			daos.GET("/next-number", daoHandler.NextNumber)
			daos.GET("/:id", daoHandler.GetDao)
			daos.POST("", daoHandler.CreateDao)
			daos.PUT("/:id", daoHandler.UpdateDao)
			daos.DELETE("/:id", daoHandler.DeleteDao)

			// Task routes
			daos.POST("/:id/tasks", daoHandler.AddTask)
			daos.PUT("/:id/tasks/reorder", daoHandler.ReorderTasks)
			daos.PUT("/:id/tasks/:taskId", daoHandler.UpdateTask)
			daos.DELETE("/:id/tasks/:taskId", daoHandler.DeleteTask)

			// Comment routes
			daos.GET("/:id/tasks/:taskId/comments", commentHandler.ListComments)
			daos.POST("/:id/tasks/:taskId/comments", commentHandler.AddComment)
		}
		protected.DELETE("/comments/:id", commentHandler.DeleteComment)

		// Notification routes
		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// User management routes (admin only, except listing)
		users := protected.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.POST("", authMiddleware.RequireAdmin(), userHandler.CreateUser)
			users.DELETE("/:id", authMiddleware.RequireAdmin(), userHandler.DeactivateUser)
			users.POST("/:id/reactivate", authMiddleware.RequireAdmin(), userHandler.ReactivateUser)
		}

		// Administrative maintenance routes
		admin := protected.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/reset-app", adminHandler.ResetApp)
		}
	}

	return router, daoService, nil
}
