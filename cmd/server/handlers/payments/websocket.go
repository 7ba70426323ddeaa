package payments

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"payments-portal/cmd/server/ctxkeys"
	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/logger"
	"payments-portal/internal/services/payments"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

// Hub interface for WebSocket management
type Hub interface {
	Subscribe(connULID ulid.ULID, paymentID bson.ObjectID) (*payments.Subscriber, func())
}

// WebSocketHandlers contains WebSocket-related handlers
type WebSocketHandlers struct {
	hub           Hub
	maxSessionSec int
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:           hub,
		maxSessionSec: maxSessionSec,
	}
}

// WSUpgrade rejects plain HTTP requests before any token work happens.
// It runs ahead of middlewares.StreamAuth, which fills ctxkeys.PaymentIDKey.
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.ErrUpgradeRequired)
	}

	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())
	return c.Next()
}

// WSPaymentStream pushes status events of one payment to the client
// @Summary Payment status stream
// @Description WebSocket; pass the streamToken returned by create-intent
// @Tags payments
// @Param token query string true "Stream token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} httperr.E
// @Failure 426 {object} httperr.E
// @Router /ws/payments/stream [get]
func (h *WebSocketHandlers) WSPaymentStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		h.closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	subscriber, cancel := h.hub.Subscribe(conn.connULID, conn.paymentID)
	defer cancel()

	logger.L().Info("WebSocket connection established", "payment_id", conn.paymentID.Hex(), "conn_id", conn.connID)

	sessionTimer := h.startSessionTimer(c, conn, cancelCtx)
	defer sessionTimer.Stop()

	h.startKeepAlive(ctx, c, conn)

	go h.handleOutgoingMessages(ctx, c, conn, subscriber)

	h.handleIncomingMessages(c, conn)

	logger.L().Info("WebSocket connection closed", "payment_id", conn.paymentID.Hex(), "conn_id", conn.connID)
}

// wsConnection holds connection-specific data
type wsConnection struct {
	paymentID bson.ObjectID
	connULID  ulid.ULID
	connID    string
}

var errMissingLocal = errors.New("missing websocket local")

func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	paymentID, ok := c.Locals(ctxkeys.PaymentIDKey).(bson.ObjectID)
	if !ok {
		logger.L().Error(ctxkeys.PaymentIDKey + " not found in WebSocket context")
		return nil, nil, fmt.Errorf("%w: %s", errMissingLocal, ctxkeys.PaymentIDKey)
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		logger.L().Error(ctxkeys.ParentCtxKey + " not found in WebSocket context")
		return nil, nil, fmt.Errorf("%w: %s", errMissingLocal, ctxkeys.ParentCtxKey)
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)

	return &wsConnection{
		paymentID: paymentID,
		connULID:  connULID,
		connID:    connULID.String(),
	}, parentCtx, nil
}

func (h *WebSocketHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Error(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

func (h *WebSocketHandlers) startSessionTimer(c *websocket.Conn, conn *wsConnection, cancelCtx context.CancelFunc) *time.Timer {
	return time.AfterFunc(time.Duration(h.maxSessionSec)*time.Second, func() {
		logger.L().Info("WebSocket session timeout", "payment_id", conn.paymentID.Hex(), "conn_id", conn.connID)
		err := c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"),
			time.Now().Add(wsWriteTimeout))
		if err != nil {
			logger.L().Warn("failed to send close message", "error", err, "conn_id", conn.connID)
		}
		h.closeConnection(c)
		cancelCtx()
	})
}

// startKeepAlive pings the client until ctx is done or a ping fails.
func (h *WebSocketHandlers) startKeepAlive(ctx context.Context, c *websocket.Conn, conn *wsConnection) {
	go func() {
		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsPingWriteTimeout))
				if err != nil {
					logger.L().Warn("failed to write ping message", "error", err, "conn_id", conn.connID)
					return
				}
			}
		}
	}()
}

func (h *WebSocketHandlers) handleOutgoingMessages(ctx context.Context, c *websocket.Conn, conn *wsConnection, subscriber *payments.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket sender", "error", r, "conn_id", conn.connID)
		}
	}()

	for {
		select {
		case event, ok := <-subscriber.Ch:
			if !ok {
				return
			}
			if h.sendEvent(c, conn, event) != nil {
				return
			}
		case <-subscriber.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandlers) sendEvent(c *websocket.Conn, conn *wsConnection, event payments.PaymentEvent) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "conn_id", conn.connID)
		return err
	}
	if err := c.WriteJSON(event); err != nil {
		logger.L().Error("failed to write WebSocket message", "error", err, "conn_id", conn.connID)
		return err
	}
	return nil
}

// handleIncomingMessages drains client frames until the connection closes.
// Clients have nothing to say on this stream.
func (h *WebSocketHandlers) handleIncomingMessages(c *websocket.Conn, conn *wsConnection) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("WebSocket error", "error", err, "conn_id", conn.connID)
			}
			return
		}
	}
}
