package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/handler"
	"github.com/noah-isme/gema-grader/internal/observability"
)

// GradePath is the grading endpoint. Its preflight is answered by the grading handler itself.
const GradePath = "/api/grade"

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler *handler.GradingHandler
	HistoryHandler *handler.HistoryHandler
	JWTMiddleware  fiber.Handler
	GradeLimiter   fiber.Handler
}

// SkipCORS reports whether the global CORS middleware should leave the request to its route.
func SkipCORS(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodOptions && c.Path() == GradePath
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get(observability.MetricsPath, observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradingHandler != nil {
		grade := app.Group(GradePath, jwtMiddleware)
		if deps.GradeLimiter != nil {
			deps.GradingHandler.Register(grade, deps.GradeLimiter)
		} else {
			deps.GradingHandler.Register(grade)
		}
	}

	if deps.HistoryHandler != nil {
		deps.HistoryHandler.RegisterLocal(app.Group("/api/history"))
		deps.HistoryHandler.RegisterCloud(app.Group("/api/cloud/history", jwtMiddleware))
	}
}
