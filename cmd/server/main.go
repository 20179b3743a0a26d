package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SanduniLK/MediLink/internal/config"
	"github.com/SanduniLK/MediLink/internal/database"
	"github.com/SanduniLK/MediLink/internal/handler"
	"github.com/SanduniLK/MediLink/internal/middleware"
	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/internal/signaling"
	"github.com/SanduniLK/MediLink/internal/store"
	"github.com/SanduniLK/MediLink/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection
	client, db := database.Connect(cfg)
	defer database.Disconnect(client)
	documents := store.NewMongoStore(client, db)

	// 4. Initialize signaling layer
	registry := signaling.NewRegistry()
	relay := signaling.NewRelay(registry)

	// 5. Initialize services
	authService := service.NewAuthService(documents)
	queueService := service.NewQueueService(documents, cfg.Queue)
	callService := service.NewCallService(documents, registry, cfg.Call.RingTimeout)
	scheduleService := service.NewScheduleService(documents)
	feedbackService := service.NewFeedbackService(documents)
	monitorService := service.NewMonitorService(documents, registry, callService, cfg.Call.RingTimeout)

	// 6. Start background worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitorService.Start(ctx)

	// 7. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 8. Setup Gin router
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 9. Register handlers
	authHandler := handler.NewAuthHandler(authService)
	queueHandler := handler.NewQueueHandler(queueService)
	callHandler := handler.NewCallHandler(callService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	wsHandler := handler.NewWSHandler(registry, relay, callService)

	// 10. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "medilink-backend",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// Websocket signaling endpoint (clients authenticate by the
	// identifiers they send in events)
	r.GET("/ws", wsHandler.Serve)

	// API routes (authenticated)
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		queues := api.Group("/queues")
		{
			queues.POST("/start", middleware.RequireRole(models.RoleDoctor, models.RoleAdmin), queueHandler.StartQueue)
			queues.POST("/checkin", queueHandler.CheckIn)
			queues.POST("/next", middleware.RequireRole(models.RoleDoctor, models.RoleAdmin), queueHandler.Next)
			queues.GET("/schedule/:scheduleId", queueHandler.GetForSchedule)
			queues.GET("/patient/:patientId", queueHandler.GetForPatient)
		}

		api.GET("/medical-center/:medicalCenterId/active-queues", queueHandler.ActiveForCenter)
		api.GET("/patients/:patientId/appointments", queueHandler.PatientAppointments)

		doctors := api.Group("/doctors")
		{
			doctors.GET("/dashboard", middleware.RequireRole(models.RoleDoctor, models.RoleAdmin), scheduleHandler.Dashboard)
			doctors.GET("/:doctorId/schedules", scheduleHandler.ListForDoctor)
			doctors.GET("/:doctorId/rating", feedbackHandler.Rating)
		}
		api.GET("/schedules/:scheduleId", scheduleHandler.Get)

		webrtc := api.Group("/webrtc/call")
		{
			webrtc.POST("/start", middleware.RequireRole(models.RoleDoctor, models.RoleAdmin), callHandler.Start)
			webrtc.POST("/end", callHandler.End)
			webrtc.GET("/:appointmentId", callHandler.Get)
		}

		api.POST("/feedback", feedbackHandler.Create)
		api.GET("/feedback/doctor/:doctorId", feedbackHandler.ListForDoctor)
	}

	// 11. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel background worker and pending call timers
	cancel()
	callService.Stop()
	log.Println("Server exited")
}
