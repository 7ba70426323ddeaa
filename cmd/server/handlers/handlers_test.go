package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
}

func decode(t *testing.T, body io.Reader) map[string]string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&m))
	return m
}

func TestHealthz(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		app := newApp()
		app.Get("/healthz", HealthzWith(func(context.Context) error { return nil }))

		resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "ok", decode(t, resp.Body)["status"])
	})

	t.Run("down", func(t *testing.T) {
		app := newApp()
		app.Get("/healthz", HealthzWith(func(context.Context) error { return errors.New("no primary") }))

		resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		body := decode(t, resp.Body)
		assert.Equal(t, "down", body["status"])
		assert.Equal(t, "no primary", body["error"])
	})
}

func TestConfig(t *testing.T) {
	app := newApp()
	app.Get("/api/config", Config(config.Config{PublishableKey: "pk_test_123"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "pk_test_123", decode(t, resp.Body)["publishableKey"])
}
