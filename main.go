package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"lob-engine/src/config"
	"lob-engine/src/engine"
	"lob-engine/src/handlers"
	"lob-engine/src/journal"
	"lob-engine/src/logger"
	"lob-engine/src/routes"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file (defaults to $CONFIG_FILE)")
	demo := flag.Bool("demo", false, "run a scripted session against an in-memory book and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseLogger()
	log := logger.GetLogger()

	book := engine.NewOrderbook(engine.WithLogger(logger.Component("engine")))
	j := journal.New(book, cfg.Journal.Capacity, logger.Component("journal"))

	if *demo {
		runDemo(j, log)
		return
	}

	log.Info().Msg("Initializing Order Matching Engine")

	orderHandler := handlers.NewOrderHandler(j, cfg)
	app := newApp(log)
	routes.SetupRoutes(app, orderHandler, cfg)

	port := ":" + cfg.Port
	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(port); err != nil {
			serverError <- err
		}
	}()

	log.Info().
		Str("port", port).
		Strs("endpoints", []string{
			"POST   /api/v1/orders",
			"PUT    /api/v1/orders/:id",
			"DELETE /api/v1/orders/:id",
			"GET    /api/v1/orders/:id",
			"GET    /api/v1/orderbook",
			"GET    /api/v1/journal",
			"GET    /health",
			"GET    /metrics",
		}).
		Msg("Order Matching Engine started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverError:
		log.Error().
			Err(err).
			Str("port", port).
			Str("hint", "Port may be already in use. Try: PORT=3000 go run main.go").
			Msg("Server failed to start")
		return
	case <-quit:
		log.Info().Msg("Received shutdown signal, shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", cfg.ShutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().
				Err(err).
				Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}
}

func newApp(log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	return app
}
