package handlerutil

import (
	"errors"

	"payments-portal/cmd/server/handlers/httperr"
	"payments-portal/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Sanitizable is implemented by request types that clean their own fields.
type Sanitizable interface {
	Sanitize()
}

// ParseAndValidateBody parses the request body, sanitizes it when the request
// type supports it, then validates the cleaned values.
func ParseAndValidateBody(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "ip", c.IP(), "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "ip", c.IP(), "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// HandleServiceError maps service errors to HTTP errors. notFound errors
// become 404; anything else is logged and hidden behind a generic 500.
func HandleServiceError(err error, handlerName string, notFound ...error) error {
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			logger.L().Info("resource not found", "handler", handlerName, "error", err)
			return httperr.NotFound(nf)
		}
	}

	logger.L().Error("service operation failed", "handler", handlerName, "error", err)
	return httperr.Fail(httperr.ErrUnableToProcess)
}
