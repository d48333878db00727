package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/climecapsule/climecapsule/internal/api/http"
	"github.com/climecapsule/climecapsule/internal/archive"
	"github.com/climecapsule/climecapsule/internal/config"
	"github.com/climecapsule/climecapsule/internal/logging"
	"github.com/climecapsule/climecapsule/internal/scheduler"
	"github.com/climecapsule/climecapsule/internal/store"
	"github.com/climecapsule/climecapsule/internal/wunderground"
)

const appName = "climecapsule"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel, appName)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	slog.SetDefault(logger)

	slog.Info("starting",
		"station", cfg.StationID,
		"db", cfg.DBPath,
		"fetchInterval", cfg.FetchInterval,
	)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open archive", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("db close", "error", err)
		}
	}()

	observationStore := store.New(db)

	// Outbound provider calls carry a bounded timeout; an unbounded call
	// would defeat the rate-limit discipline.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := wunderground.NewClient(cfg.BaseURL, cfg.APIKey, cfg.StationID, httpClient)

	service := archive.NewService(client, observationStore)

	// First run against an empty archive pulls the station's full history.
	// This walks one provider call per day through the rate limiter, so it
	// can take a while for stations with years of readings.
	if err := service.EnsurePopulated(context.Background(), cfg.EarliestObservation); err != nil {
		slog.Error("failed to populate archive", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
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

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		slog.Info("http listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
