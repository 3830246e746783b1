package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSigner(t *testing.T) *jwt.Signer {
	t.Helper()
	signer, err := jwt.NewSigner("middleware-test", time.Hour)
	require.NoError(t, err)
	return signer
}

func bearer(t *testing.T, signer *jwt.Signer, privs ...string) string {
	t.Helper()
	token, err := signer.GenerateToken("user-7", "u7@example.com", "User Seven", privs)
	require.NoError(t, err)
	return "Bearer " + token
}

func protectedApp(signer *jwt.Signer, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/thing", RequireAuth(signer), guard, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"email":   c.Locals("user_email"),
		})
	})
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequireAuth(t *testing.T) {
	signer := newSigner(t)
	other, err := jwt.NewSigner("someone-else", time.Hour)
	require.NoError(t, err)
	app := protectedApp(signer, RequirePrivilege("inventory:view"))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"foreign signature", bearer(t, other, "inventory:view"), fiber.StatusUnauthorized},
		{"valid", bearer(t, signer, "inventory:view"), fiber.StatusOK},
		{"lowercase scheme", "bearer " + bearer(t, signer, "inventory:view")[7:], fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/thing", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode(t, resp)
			if tt.status == fiber.StatusOK {
				assert.Equal(t, "user-7", body["user_id"])
				assert.Equal(t, "u7@example.com", body["email"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["error"])
			}
		})
	}
}

func TestRequirePrivilege_Forbidden(t *testing.T) {
	signer := newSigner(t)
	app := protectedApp(signer, RequirePrivilege("transaction:create"))

	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("Authorization", bearer(t, signer, "inventory:view"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode(t, resp)["error"])
}

func TestRequireAnyPrivilege(t *testing.T) {
	signer := newSigner(t)
	app := protectedApp(signer, RequireAnyPrivilege("catalog:manage", "inventory:adjust"))

	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("Authorization", bearer(t, signer, "inventory:adjust"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequestLogger_RendersHandlerErrors(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	app.Use(NewRateLimiter(client, 1, time.Minute, zap.NewNop()).Handler())
	app.Post("/tx", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/tx", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, 3, time.Minute, zap.NewNop())
	limiter.prefix = "test:ratelimit:" + uuid.NewString() + ":"

	app := fiber.New()
	app.Use(limiter.Mutations())
	app.Post("/tx", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/tx", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/tx", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"2", "1", "0"}[i], resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/tx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, resp)["error"])

	// reads are never limited
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/tx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
