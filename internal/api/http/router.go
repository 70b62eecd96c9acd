package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorlane/discount-agent/internal/api/http/handlers"
	"github.com/creatorlane/discount-agent/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Agent     *handlers.AgentHandler
	Webhook   *handlers.WebhookHandler
	Analytics *handlers.AnalyticsHandler
	Admin     *handlers.AdminHandler
	Tokens    *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/simulate", cfg.Agent.Simulate)
	app.Post("/webhook/:platform", cfg.Webhook.Receive)
	app.Get("/analytics/creators", cfg.Analytics.Summary)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	adminGroup := app.Group("/admin", auth.RequireAdmin(cfg.Tokens))
	adminGroup.Post("/reload", cfg.Admin.Reload)
	adminGroup.Post("/reset", cfg.Admin.Reset)
	adminGroup.Get("/metrics", cfg.Admin.Metrics)
}
