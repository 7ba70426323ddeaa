package payments

import (
	"encoding/json"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"payments-portal/cmd/server/middlewares"
	"payments-portal/cmd/server/testutil"
	"payments-portal/internal/services/payments"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const testSecret = "test-secret-key-with-32-characters"

func setupWSApp(t *testing.T, maxSessionSec int) (*fiber.App, *payments.Hub, *payments.StreamTokens) {
	t.Helper()

	app := testutil.CreateTestApp(t)
	hub := payments.NewHub(8)
	tokens := payments.NewStreamTokens(testSecret, time.Minute)
	ws := NewWebSocketHandlers(hub, maxSessionSec)

	app.Get("/ws/payments/stream",
		ws.WSUpgrade,
		middlewares.StreamAuth(testSecret),
		websocket.New(ws.WSPaymentStream))
	return app, hub, tokens
}

func ptr(s string) *string { return &s }

func TestWSUpgradeRejects(t *testing.T) {
	app, _, _ := setupWSApp(t, 900)
	id := bson.NewObjectID()
	exp := time.Now().Add(time.Minute).Unix()

	other, err := payments.NewStreamTokens("another-secret-with-32-characters!", time.Minute).Issue(id)
	require.NoError(t, err)
	expired, err := payments.NewStreamTokens(testSecret, -time.Minute).Issue(id)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"payment_id": id.Hex(), "exp": exp}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   *string
		status  int
		message string
	}{
		{"missing token", nil, 401, "Missing token"},
		{"empty token", ptr(""), 401, "Missing token"},
		{"garbage token", ptr("abc"), 401, "Invalid token"},
		{"foreign secret", ptr(other), 401, "Invalid token"},
		{"expired", ptr(expired), 401, "Invalid token"},
		{"alg none", ptr(none), 401, "Invalid token"},
		{"other hmac alg", ptr(sign(jwt.SigningMethodHS512, jwt.MapClaims{"payment_id": id.Hex(), "exp": exp})), 401, "Invalid token"},
		{"missing payment id", ptr(sign(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp})), 401, "Invalid token"},
		{"bad payment id", ptr(sign(jwt.SigningMethodHS256, jwt.MapClaims{"payment_id": "nope", "exp": exp})), 401, "Invalid token"},
		{"no expiry", ptr(sign(jwt.SigningMethodHS256, jwt.MapClaims{"payment_id": id.Hex()})), 401, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(testutil.CreateWebSocketRequest("/ws/payments/stream", tt.token))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestWSUpgradeNonWebSocketRequest(t *testing.T) {
	app, _, _ := setupWSApp(t, 900)

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/ws/payments/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func TestWSStreamDeliversStatusEvents(t *testing.T) {
	app, hub, tokens := setupWSApp(t, 900)
	addr := testutil.Serve(t, app)

	paymentID := bson.NewObjectID()
	token, err := tokens.Issue(paymentID)
	require.NoError(t, err)

	var conn *gorillaws.Conn
	require.Eventually(t, func() bool {
		conn, _, err = gorillaws.DefaultDialer.Dial("ws://"+addr+"/ws/payments/stream?token="+token, nil)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	// events for other payments are not forwarded
	hub.Broadcast(t.Context(), payments.PaymentEvent{Type: "status", Payment: &payments.Payment{ID: bson.NewObjectID()}})
	hub.Broadcast(t.Context(), payments.PaymentEvent{
		Type:    "status",
		Payment: &payments.Payment{ID: paymentID, OrderID: "ORD-9", Status: payments.StatusSucceeded},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string           `json:"type"`
		Payment payments.Payment `json:"payment"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, paymentID, msg.Payment.ID)
	assert.Equal(t, "ORD-9", msg.Payment.OrderID)
	assert.Equal(t, payments.StatusSucceeded, msg.Payment.Status)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 2*time.Second, 20*time.Millisecond,
		"hub should have no subscribers after disconnect")
}

func TestWSSessionTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow websocket timeout test in short mode")
	}

	app, _, tokens := setupWSApp(t, 1)
	addr := testutil.Serve(t, app)

	token, err := tokens.Issue(bson.NewObjectID())
	require.NoError(t, err)

	var conn *gorillaws.Conn
	require.Eventually(t, func() bool {
		conn, _, err = gorillaws.DefaultDialer.Dial("ws://"+addr+"/ws/payments/stream?token="+token, nil)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(4*time.Second)))
	start := time.Now()
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	var closeErr *gorillaws.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, WSClosePolicyViolation, closeErr.Code)
	}
	assert.Less(t, time.Since(start), 3*time.Second, "connection should close promptly after the session limit")
}

// keepAliveGoroutines counts live keep-alive pingers across all goroutines.
func keepAliveGoroutines() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return strings.Count(string(buf[:n]), "startKeepAlive.func1")
}

func TestWSKeepAliveStopsOnDisconnect(t *testing.T) {
	app, hub, tokens := setupWSApp(t, 900)
	addr := testutil.Serve(t, app)

	const conns = 10
	for range conns {
		token, err := tokens.Issue(bson.NewObjectID())
		require.NoError(t, err)

		var conn *gorillaws.Conn
		require.Eventually(t, func() bool {
			conn, _, err = gorillaws.DefaultDialer.Dial("ws://"+addr+"/ws/payments/stream?token="+token, nil)
			return err == nil
		}, 2*time.Second, 50*time.Millisecond)
		require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

		require.NoError(t, conn.WriteMessage(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, "")))
		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	}

	assert.Eventually(t, func() bool { return keepAliveGoroutines() == 0 }, 2*time.Second, 20*time.Millisecond,
		"keep-alive goroutines left after %d closed connections: %d", conns, keepAliveGoroutines())
}
