package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/FlareSome/Weather-Prediction/internal/api/http"
	"github.com/FlareSome/Weather-Prediction/internal/combined"
	"github.com/FlareSome/Weather-Prediction/internal/config"
	"github.com/FlareSome/Weather-Prediction/internal/forecast"
	"github.com/FlareSome/Weather-Prediction/internal/logger"
	"github.com/FlareSome/Weather-Prediction/internal/observability"
	"github.com/FlareSome/Weather-Prediction/internal/scheduler"
	"github.com/FlareSome/Weather-Prediction/internal/sensor"
	"github.com/FlareSome/Weather-Prediction/internal/store"
	"github.com/FlareSome/Weather-Prediction/internal/weatherapi"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	metrics := observability.NewMetrics()

	// SQLite-backed reading store.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		zlog.Fatalw("failed to open store", "path", cfg.DBPath, "error", err)
	}
	defer db.Close()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// WeatherAPI client with resilience (backoff + circuit breaker).
	api := weatherapi.NewClient(httpClient, cfg.WeatherAPIKey, cfg.WeatherLocation, zlog)

	// Forecast model, retrained periodically from stored readings.
	model := forecast.New(clockwork.NewRealClock(), zlog)

	sched := scheduler.New(db, model, cfg.RetrainInterval, metrics, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	// Root context cancelled on termination signal; the serial listener
	// and shutdown both hang off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SerialEnabled {
		listener := sensor.NewListener(sensor.ListenerConfig{
			Port:       cfg.SerialPort,
			Baud:       cfg.SerialBaud,
			RetryDelay: cfg.SerialRetryDelay,
		}, db, metrics, zlog)
		go listener.Run(ctx)
	} else {
		zlog.Infow("serial listener disabled; running on API data only")
	}

	// Merge engine combining sensor, API and model data.
	engine := combined.NewEngine(db, api, model, db, metrics, zlog)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-station",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// API routes.
	httpapi.RegisterRoutes(app, engine, db, model)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Errorw("fiber server stopped", "error", err)
		}
	}()
	zlog.Infow("weather station started", "port", cfg.Port, "serial", cfg.SerialEnabled)

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Errorw("error during shutdown", "error", err)
	}
}
