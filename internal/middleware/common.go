package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// CORS header values shared by the global middleware and the grading preflight handler.
const (
	CORSAllowOrigins = "*"
	CORSAllowHeaders = "Origin, Content-Type, Accept, Authorization, X-Correlation-ID"
	CORSAllowMethods = "GET,POST,DELETE,OPTIONS"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// SkipCORS lets routes answer their own preflight requests.
	SkipCORS func(c *fiber.Ctx) bool
}

// Register attaches the common middlewares used across the API.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		Next:         cfg.SkipCORS,
		AllowOrigins: CORSAllowOrigins,
		AllowHeaders: CORSAllowHeaders,
		AllowMethods: CORSAllowMethods,
	}))
}
