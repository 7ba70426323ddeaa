package middlewares

import (
	"errors"

	"payments-portal/cmd/server/ctxkeys"
	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/logger"
	"payments-portal/internal/services/payments"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const streamTokenLocal = "streamToken"

// StreamAuth verifies the ?token= issued by create-intent and stores the
// payment it grants access to in ctx.Locals(ctxkeys.PaymentIDKey).
//
// A missing token answers 401 "Missing token"; anything else that fails
// verification answers 401 "Invalid token".
func StreamAuth(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		TokenLookup: "query:token",
		ContextKey:  streamTokenLocal,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals(streamTokenLocal).(*jwt.Token)
			paymentID, err := payments.PaymentIDFromToken(token)
			if err != nil {
				logger.L().Warn("invalid stream token", "ip", c.IP(), "error", err)
				return httperr.Fail(httperr.ErrInvalidToken)
			}

			c.Locals(ctxkeys.PaymentIDKey, paymentID)
			logger.L().Info("stream token accepted", "ip", c.IP(), "payment_id", paymentID.Hex())
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				logger.L().Warn("missing stream token", "ip", c.IP())
				return httperr.Fail(httperr.ErrMissingToken)
			}
			logger.L().Warn("invalid stream token", "ip", c.IP(), "error", err)
			return httperr.Fail(httperr.ErrInvalidToken)
		},
	})
}
