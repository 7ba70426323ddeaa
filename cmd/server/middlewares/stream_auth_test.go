package middlewares

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"payments-portal/cmd/server/ctxkeys"
	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/services/payments"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const streamSecret = "stream-auth-secret-with-32-chars!"

func TestStreamAuthStoresPaymentID(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Get("/stream", StreamAuth(streamSecret), func(c *fiber.Ctx) error {
		id, ok := c.Locals(ctxkeys.PaymentIDKey).(bson.ObjectID)
		if !ok {
			return c.SendStatus(500)
		}
		return c.SendString(id.Hex())
	})

	id := bson.NewObjectID()
	token, err := payments.NewStreamTokens(streamSecret, time.Minute).Issue(id)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/stream?token="+token, nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, id.Hex(), string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/stream", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, 401, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing token"}`, string(body))
}
