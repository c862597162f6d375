package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/waveline-app/backend/internal/handlers"
	"github.com/waveline-app/backend/internal/middleware"
	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/realtime"
	"github.com/waveline-app/backend/internal/repositories"
	"github.com/waveline-app/backend/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// pgdb and firebaseAuthClient may be nil; engagement analytics and Google
// sign-in are disabled respectively.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mongoDB *mongo.Database, firebaseAuthClient *auth.Client, hub *realtime.Hub) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	timelineRepo := repositories.NewMongoTimelineRepository(mongoDB)
	eventRepo := repositories.NewMongoEventRepository(mongoDB)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)

	var analyticsRepo repositories.AnalyticsRepository
	if pgdb != nil {
		if err := pgdb.AutoMigrate(&models.AnalyticsEntry{}); err != nil {
			log.Fatalf("Failed to auto migrate analytics model: %v", err)
		}
		analyticsRepo = repositories.NewPostgresAnalyticsRepository(pgdb)
		log.Println("PostgreSQL auto-migration completed for analytics.")
	}

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub)

	// --- WebSocket gateway ---
	realtime.NewHandler(hub).Register(e)
	log.Println("WebSocket gateway configured.")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Follow graph routes
	socialHandler := handlers.NewSocialHandler(userRepo, notificationService, analyticsRepo)
	socialHandler.RegisterSocialRoutes(api)
	log.Println("Follow routes configured.")

	// Timeline routes
	timelineHandler := handlers.NewTimelineHandler(timelineRepo, userRepo, notificationService, hub, analyticsRepo)
	timelineHandler.RegisterTimelineRoutes(api)
	log.Println("Timeline routes configured.")

	// Event routes
	eventHandler := handlers.NewEventHandler(eventRepo, timelineRepo, userRepo, notificationService, hub, analyticsRepo)
	eventHandler.RegisterEventRoutes(api)
	log.Println("Event routes configured.")

	// Message routes
	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, notificationService, hub)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
