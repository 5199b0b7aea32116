package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/talentra/hrms_backend/config"
	"github.com/talentra/hrms_backend/middleware"
	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/repositories"
	"github.com/talentra/hrms_backend/routes"
	"github.com/talentra/hrms_backend/services"
	"github.com/talentra/hrms_backend/utils"
	"github.com/talentra/hrms_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	hrmsDB := client.Database(config.DatabaseName())

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize shared services
	dispatcher := utils.NewDispatcher(hrmsDB, wsHub)
	configService := services.NewConfigService(hrmsDB, redisClient)
	requestRepo := repositories.NewRequestRepository(hrmsDB)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "HRMS Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Register routes
	routes.SetupRoutes(e, hrmsDB, wsHub, dispatcher, configService)

	// Background jobs
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	clock := services.RealClock{}
	scheduler := services.NewScheduler(clock)
	defer scheduler.Stop()

	slaMonitor := services.NewSLAMonitor(hrmsDB, requestRepo, dispatcher, configService, clock)
	scheduler.Every("sla-sweep", 30*time.Minute, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		slaMonitor.Sweep(sweepCtx)
	})

	absenceMarker := services.NewAbsenceMarker(hrmsDB, dispatcher, configService, clock)
	scheduleAbsenceJob := func(cfg models.SystemConfig) {
		if !cfg.AutoAbsence.Enabled {
			scheduler.Cancel("auto-absence")
			return
		}
		err := scheduler.DailyAt("auto-absence", cfg.AutoAbsence.Time, cfg.AutoAbsence.Timezone, func() {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			absenceMarker.Run(runCtx)
		})
		if err != nil {
			log.Printf("Failed to schedule absence job: %v", err)
		}
	}

	startupCtx, cancelStartup := context.WithTimeout(ctx, 10*time.Second)
	cfg, err := configService.Get(startupCtx)
	cancelStartup()
	if err != nil {
		log.Printf("Failed to load system config, using defaults: %v", err)
		cfg = models.DefaultSystemConfig()
	}
	scheduleAbsenceJob(cfg)

	// Reschedule the absence job whenever config changes
	configService.OnChange(scheduleAbsenceJob)
	go configService.Watch(ctx)

	// Ensure uploads directory exists
	os.MkdirAll("uploads", 0755)
	os.MkdirAll("uploads/checkins", 0755)

	e.Static("/uploads", "uploads")

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
