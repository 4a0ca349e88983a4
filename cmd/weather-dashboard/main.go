package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

type preferenceStore interface {
	weather.Preferences
	io.Closer
}

func openPreferences(path string) (preferenceStore, error) {
	if path == "" {
		log.Println("INFO: PREFERENCES_DB not set; preferences are kept in memory")
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLite(path)
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Println("ERROR: OPENWEATHER_API_KEY is not set; weather requests will fail")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	prefs, err := openPreferences(cfg.PreferencesDB)
	if err != nil {
		log.Fatalf("failed to open preferences: %v", err)
	}
	defer prefs.Close()

	// Provider with resilience (backoff + circuit breaker), throttled client side.
	var opts []providers.Option
	if cfg.OpenWeatherBaseURL != "" {
		opts = append(opts, providers.WithBaseURL(cfg.OpenWeatherBaseURL))
	}
	gateway := providers.NewRateLimited(
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, opts...),
		cfg.ProviderRPS,
		cfg.ProviderBurst,
	)

	queries := query.NewClient(cfg.CacheTTL, cfg.HTTPTimeout*2)

	service := weather.NewService(gateway, prefs, queries, weather.ServiceConfig{
		DefaultCity: cfg.DefaultCity,
		Zone:        cfg.DayBoundary,
		SnapshotTTL: cfg.CacheTTL,
	})

	// Scheduler that keeps the default city warm.
	sched := scheduler.New(cfg.RefreshInterval, cfg.HTTPTimeout*2, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
			"cached":  queries.Cached(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
