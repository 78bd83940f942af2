package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/labor-market-dashboard/internal/api/http"
	"github.com/i474232898/labor-market-dashboard/internal/config"
	"github.com/i474232898/labor-market-dashboard/internal/labor"
	"github.com/i474232898/labor-market-dashboard/internal/labor/bls"
	"github.com/i474232898/labor-market-dashboard/internal/presenter"
	"github.com/i474232898/labor-market-dashboard/internal/scheduler"
	"github.com/i474232898/labor-market-dashboard/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	catalog, err := presenter.LoadCatalog(cfg.SeriesCatalog)
	if err != nil {
		log.Fatalf("failed to load series catalog: %v", err)
	}

	// Upstream client with resilience (backoff + circuit breaker) and optional response cache.
	source, closeSource, err := bls.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to create BLS client: %v", err)
	}
	defer closeSource()

	fileStore := store.NewFileStore(cfg.DataPath)
	service := labor.NewService(fileStore, source, cfg.Series)
	log.Printf("INFO: tracking series %v from %s", service.Series(), source.Name())

	// The dashboard reads from memory; the scheduler replaces it after each refresh.
	memStore := store.NewMemoryStore()
	ds, err := fileStore.Load(context.Background())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("WARN: no dataset at %s; run `labordata bootstrap` to create one", cfg.DataPath)
	case err != nil:
		log.Fatalf("failed to load dataset: %v", err)
	default:
		if err := memStore.Save(context.Background(), ds); err != nil {
			log.Fatalf("failed to prime dataset: %v", err)
		}
		log.Printf("INFO: loaded %d rows from %s (latest %s)", len(ds), cfg.DataPath, ds.LastDate())
	}

	// Scheduler that periodically refreshes the dataset.
	sched := scheduler.New(cfg.RefreshInterval, service, memStore)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "labor-market-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
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
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(compress.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		_, version := memStore.Snapshot()
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "labor-market-dashboard",
			"dataset": version,
		})
	})

	httpapi.RegisterRoutes(app, memStore, catalog)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: dashboard listening on :%s", cfg.Port)

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
