package middlewares

import (
	"time"

	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// BuildRateLimiter returns a per-IP limiter allowing max requests per
// expiration window. It does nothing when max <= 0, so callers don't need to
// wrap it in an if-statement. CORS preflights are never counted.
func BuildRateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.L().Warn("rate limit reached", "ip", c.IP(), "path", c.Path())
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	})
}
