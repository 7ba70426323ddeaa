package handlers

import (
	"context"
	"time"

	"payments-portal/internal/clients/mongo"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Pinger reports whether the database answers.
type Pinger func(ctx context.Context) error

// Healthz returns the health handler backed by the mongo singleton.
func Healthz() fiber.Handler {
	return HealthzWith(mongo.Ping)
}

// HealthzWith returns the health handler using ping.
// @Summary Health check
// @Description Check if the server and its database are healthy
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func HealthzWith(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status": "ok",
		})
	}
}
