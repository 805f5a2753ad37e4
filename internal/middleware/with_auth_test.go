package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/middleware"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityApp(opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(middleware.JWTIdentity(testSecret))
	app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendString(middleware.Identity(c))
	}, opts))
	return app
}

func TestJWTIdentityAllowsAnonymous(t *testing.T) {
	app := identityApp(middleware.AuthOptions{})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "", readBody(t, resp))
}

func TestJWTIdentityBindsSubject(t *testing.T) {
	app := identityApp(middleware.AuthOptions{RequireIdentity: true})
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "teacher-7", "exp": time.Now().Add(time.Hour).Unix()})

	resp := perform(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "teacher-7", readBody(t, resp))
}

func TestJWTIdentityNumericSubject(t *testing.T) {
	app := identityApp(middleware.AuthOptions{})
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": 42})

	resp := perform(t, app, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "42", readBody(t, resp))
}

func TestJWTIdentityRejectsInvalidToken(t *testing.T) {
	app := identityApp(middleware.AuthOptions{})

	wrongKey := signToken(t, "another-secret", jwt.MapClaims{"sub": "teacher-7"})
	resp := perform(t, app, "Bearer "+wrongKey)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "teacher-7", "exp": time.Now().Add(-time.Hour).Unix()})
	resp = perform(t, app, "Bearer "+expired)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = perform(t, app, "Basic abc")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWithAuthRequiresIdentity(t *testing.T) {
	app := identityApp(middleware.AuthOptions{RequireIdentity: true})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func perform(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, err := io.Copy(buf, resp.Body)
	require.NoError(t, err)
	return buf.String()
}
