package httperr

import (
	"errors"

	"payments-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// E is an error that renders as {"error": Message} with the given status.
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
}

func (e E) Error() string {
	return e.Message
}

// JSON writes the error envelope.
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// NotFound returns a 404 carrying err's message.
func NotFound(err error) error {
	return Fail(E{Status: fiber.StatusNotFound, Message: err.Error()})
}

// Pre-defined HTTP errors
var (
	ErrBadRequest      = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrMissingToken    = E{Status: fiber.StatusUnauthorized, Message: "Missing token"}
	ErrInvalidToken    = E{Status: fiber.StatusUnauthorized, Message: "Invalid token"}
	ErrNotFound        = E{Status: fiber.StatusNotFound, Message: "Not Found"}
	ErrUpgradeRequired = E{Status: fiber.StatusUpgradeRequired, Message: "WebSocket upgrade required"}
	ErrTooManyRequests = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrUnableToProcess = E{Status: fiber.StatusInternalServerError, Message: "unable to process your request."}
	ErrInternal        = E{Status: fiber.StatusInternalServerError, Message: "Internal Server Error"}
)

// resolve maps any error to the envelope it is rendered with.
func resolve(err error) E {
	var e E
	if errors.As(err, &e) {
		return e
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return E{Status: fe.Code, Message: fe.Message}
	}
	return ErrInternal
}

// StatusOf reports the status Handler will answer err with.
func StatusOf(err error) int {
	return resolve(err).Status
}

// Handler is the global error handler for Fiber. Unknown errors never leak
// their text to the client.
func Handler(c *fiber.Ctx, err error) error {
	e := resolve(err)
	if e.Status >= fiber.StatusInternalServerError {
		logger.L().Error("request failed", "method", c.Method(), "path", c.Path(), "status", e.Status, "error", err)
	}
	return e.JSON(c)
}
