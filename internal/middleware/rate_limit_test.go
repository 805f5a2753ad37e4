package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/middleware"
)

func TestRateLimitRejectsAfterMax(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RateLimit("grade", 1, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = perform(t, app, "")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var payload map[string]string
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "Too many requests", payload["error"])
}

func TestCorrelationIDPropagates(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Header.Get("X-Correlation-ID"))
	require.Equal(t, "corr-123", readBody(t, resp))
}
