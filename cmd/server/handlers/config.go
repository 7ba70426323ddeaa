package handlers

import (
	"payments-portal/internal/config"

	"github.com/gofiber/fiber/v2"
)

// PublicConfig is the configuration the browser needs to start a checkout.
type PublicConfig struct {
	PublishableKey string `json:"publishableKey" example:"pk_test_xxx"`
}

// Config returns the public config handler.
// @Summary Public client configuration
// @Description Publishable key for the payment form
// @Tags config
// @Produce json
// @Success 200 {object} handlers.PublicConfig
// @Router /api/config [get]
func Config(cfg config.Config) fiber.Handler {
	body := PublicConfig{PublishableKey: cfg.PublishableKey}
	return func(c *fiber.Ctx) error {
		return c.JSON(body)
	}
}
