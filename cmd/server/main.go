package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/config"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/handlers"
	"github.com/stayforge/hotel-backend/internal/middleware"
	"github.com/stayforge/hotel-backend/internal/services"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting StayForge Hotel Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	ruleRepo := database.NewPricingRuleRepository(db)
	reservationRepo := database.NewReservationRepository(db)
	rateRepo := database.NewRateRepository(db)
	addonRepo := database.NewAddonRepository(db)
	roomRepo := database.NewRoomRepository(db)
	parkingRepo := database.NewParkingRepository(db)
	planRepo := database.NewPlanRepository(db)

	// Initialize services
	rateService := services.NewRateService(ruleRepo, logger)
	reservationService := services.NewReservationService(
		db,
		reservationRepo,
		rateRepo,
		addonRepo,
		roomRepo,
		parkingRepo,
		ruleRepo,
		planRepo,
		cfg.Booking.MaxNightsPerMutation,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	priceHandler := handlers.NewPriceHandler(rateService, logger)
	reservationHandler := handlers.NewReservationHandler(
		reservationService, reservationRepo, rateRepo, parkingRepo, logger,
	)
	ruleHandler := handlers.NewPricingRuleHandler(ruleRepo, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(roomRepo, parkingRepo)
	planHandler := handlers.NewPlanHandler(planRepo)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		hotels := v1.Group("/hotels")
		{
			hotels.GET("/:id/price", priceHandler.GetPrice)
			hotels.GET("/:id/price/preview", priceHandler.PreviewPrice)
			hotels.GET("/:id/price/stay", priceHandler.PriceStay)
			hotels.GET("/:id/pricing-rules", ruleHandler.ListRules)
			hotels.GET("/:id/rooms", availabilityHandler.ListRooms)
			hotels.GET("/:id/rooms/available", availabilityHandler.GetAvailableRooms)
			hotels.GET("/:id/parking", availabilityHandler.ListParking)
			hotels.GET("/:id/parking/available", availabilityHandler.GetAvailableParking)
			hotels.GET("/:id/plans", planHandler.ListHotelPlans)
		}

		v1.GET("/plans", planHandler.ListPlans)

		rules := v1.Group("/pricing-rules")
		{
			rules.POST("", ruleHandler.CreateRule)
			rules.GET("/:id", ruleHandler.GetRule)
			rules.PUT("/:id", ruleHandler.UpdateRule)
			rules.DELETE("/:id", ruleHandler.DeleteRule)
		}

		reservations := v1.Group("/reservations")
		{
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.GET("/:id", reservationHandler.GetReservation)
			reservations.PATCH("/:id/status", reservationHandler.ChangeStatus)
			reservations.POST("/:id/move", reservationHandler.MoveStay)
			reservations.POST("/:id/plan", reservationHandler.ChangePlan)
			reservations.POST("/:id/guests", reservationHandler.ChangeGuestCount)
			reservations.POST("/:id/parking", reservationHandler.AssignParking)
		}

		details := v1.Group("/details")
		{
			details.GET("/:id/rates", reservationHandler.GetDetailRates)
			details.POST("/:id/cancel", reservationHandler.CancelDetail)
			details.POST("/:id/recover", reservationHandler.RecoverDetail)
			details.POST("/:id/addons", reservationHandler.AddAddon)
		}

		v1.DELETE("/addons/:id", reservationHandler.RemoveAddon)
		v1.DELETE("/parking-claims/:id", reservationHandler.ReleaseParking)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler reports process and database health
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	}
}
