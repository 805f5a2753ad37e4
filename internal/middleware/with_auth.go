package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-grader/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	RequireIdentity bool
}

// WithAuth wraps a handler with an identity guard. JWTIdentity must run earlier in the chain.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if opts.RequireIdentity && Identity(c) == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		return handler(c)
	}
}
