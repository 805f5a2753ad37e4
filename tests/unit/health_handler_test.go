package unit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName:    "GEMA Grader",
		AppEnv:     "test",
		AIProvider: "anthropic",
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload handler.HealthResponse
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.Equal(t, "ok", payload.Status)
	assert.Equal(t, cfg.AppName, payload.Service)
	assert.Equal(t, cfg.AppEnv, payload.Environment)
	assert.Equal(t, cfg.AIProvider, payload.Provider)
	assert.WithinDuration(t, time.Now().UTC(), payload.Timestamp, 2*time.Second)
}
