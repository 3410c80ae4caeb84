package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/controllers"
	"github.com/kendall-kelly/volunteer-hours-api/middleware"
	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/session"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
)

func main() {
	// Basic logging
	log.Println("Starting Volunteer Hours API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetConfig(cfg)
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if err := utils.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	initImageService(cfg)
	services.InitNotifier(services.NewDiscordNotifier(cfg.DiscordWebhookURL))
	services.InitIdentityGateway(services.NewAuth0Service(cfg))

	tracker := initSessionTracker(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tracker.Run(ctx, time.Minute)

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initImageService picks S3 when a bucket is configured, local disk otherwise
func initImageService(cfg *config.Config) {
	if cfg.UsesS3() {
		s3Service, err := services.InitS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(services.NewS3ImageService(s3Service))
		log.Printf("Image host: S3 bucket %s", cfg.AWSS3Bucket)
		return
	}

	baseURL := cfg.UploadBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}
	services.InitImageService(services.NewLocalImageService(utils.UploadDir, baseURL))
	log.Printf("Image host: local directory %s", utils.UploadDir)
}

// initSessionTracker keeps idle clocks in Redis when configured so every
// instance agrees, and in memory otherwise
func initSessionTracker(cfg *config.Config) *session.Tracker {
	var store session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionIdleTimeout+cfg.SessionWarning)
		if err != nil {
			log.Printf("Redis unavailable, keeping session activity in memory: %v", err)
		} else {
			store = redisStore
		}
	}

	tracker := session.NewTracker(store, cfg.SessionIdleTimeout, cfg.SessionWarning)
	tracker.OnWarning(func(uid string, remaining time.Duration) {
		log.Printf("Session of %s expires in %s", uid, remaining.Round(time.Second))
	})
	tracker.OnExpire(func(uid string) {
		log.Printf("Session of %s expired after %s of inactivity", uid, cfg.SessionIdleTimeout)
	})
	return session.InitTracker(tracker)
}

// setupRouter wires every route. auth validates bearer tokens and is swapped
// for a stub in tests.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".png", ".jpg", ".jpeg", ".webp"})))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", controllers.Register)
			authRoutes.POST("/login", controllers.Login)
			authRoutes.POST("/password-reset", controllers.RequestPasswordReset)
			authRoutes.GET("/email-exists", controllers.CheckEmailExists)
		}

		v1.POST("/uploads", controllers.UploadImage)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)
		v1.GET("/notifications/test", controllers.TestNotification)

		var activity middleware.ActivityRecorder
		if tracker := session.GetTracker(); tracker != nil {
			activity = tracker
		}

		protected := v1.Group("")
		protected.Use(auth, middleware.TrackActivity(activity))
		{
			protected.POST("/users/me", controllers.CreateUser)
			protected.GET("/users/me", controllers.GetMyProfile)
			protected.PUT("/users/me", controllers.UpdateMyProfile)

			protected.POST("/session/activity", controllers.RecordSessionActivity)

			protected.POST("/orders", controllers.CreateOrder)
			protected.POST("/orders/with-slip", controllers.CreateOrderWithSlip)
			protected.GET("/orders", controllers.GetMyOrders)
			protected.GET("/orders/:id", controllers.GetOrder)
			protected.PUT("/orders/:id", controllers.UpdateOrder)
			protected.POST("/orders/:id/payment-slip", controllers.UploadOrderPaymentSlip)
		}

		// polling the idle clock must not restart it
		untracked := v1.Group("")
		untracked.Use(auth)
		{
			untracked.GET("/session/status", controllers.GetSessionStatus)
		}

		admin := v1.Group("/admin")
		admin.Use(auth, middleware.RequireAdmin(), middleware.TrackActivity(activity))
		{
			admin.GET("/orders", controllers.ListAllOrders)
			admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
			admin.PATCH("/orders/:id/download-url", controllers.UpdateOrderDownloadURL)
			admin.DELETE("/orders/:id", controllers.DeleteOrder)

			admin.GET("/payment-slips", controllers.ListPaymentSlips)
			admin.POST("/payment-slips", controllers.UploadPaymentSlip)
			admin.DELETE("/payment-slips/:id", controllers.DeletePaymentSlip)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Volunteer Hours API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		log.Println("Database status requested before the database was connected")
		statusError(c, "DATABASE_ERROR")
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get database instance: %v", err)
		statusError(c, "DATABASE_ERROR")
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		log.Printf("Database connection failed: %v", err)
		statusError(c, "DATABASE_ERROR")
		return
	}

	// Get list of tables
	tables, err := db.Migrator().GetTables()
	if err != nil {
		log.Printf("Failed to query tables: %v", err)
		statusError(c, "DATABASE_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

func statusError(c *gin.Context, code string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": utils.LocalizedMessage(code),
		},
	})
}
