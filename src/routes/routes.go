package routes

import (
	"github.com/gofiber/fiber/v2"

	"lob-engine/src/config"
	"lob-engine/src/handlers"
	"lob-engine/src/middleware"
)

func SetupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler, cfg *config.Config) *middleware.ServiceAvailability {
	serviceAvailability := middleware.NewServiceAvailability(cfg.Service, "/health")

	app.Use(middleware.RequestID())
	app.Use(serviceAvailability.Middleware())
	app.Use(middleware.RequestLogger(cfg.Log.RequestLogging))

	api := app.Group("/api/v1")

	if !cfg.RateLimit.Disabled {
		rateLimiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit)
		api.Use(rateLimiter.Middleware())
	}

	api.Post("/orders", orderHandler.SubmitOrder)
	api.Put("/orders/:id", orderHandler.ModifyOrder)
	api.Delete("/orders/:id", orderHandler.CancelOrder)
	api.Get("/orders/:id", orderHandler.GetOrderStatus)
	api.Get("/orderbook", orderHandler.GetOrderBook)
	api.Get("/journal", orderHandler.GetJournal)

	app.Get("/health", orderHandler.HealthCheck)
	app.Get("/metrics", orderHandler.Metrics)

	return serviceAvailability
}
