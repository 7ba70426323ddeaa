package payments

import (
	"context"

	"payments-portal/cmd/server/handlers/handlerutil"
	"payments-portal/internal/services/payments"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Service defines the interface for payments service
type Service interface {
	CreateIntent(ctx context.Context, req payments.CreateIntentRequest) (*payments.CreateIntentResponse, error)
	RecordResult(ctx context.Context, req payments.RecordResultRequest) (*payments.RecordResultResponse, error)
	List(ctx context.Context) ([]*payments.Payment, error)
}

// Handlers contains the payments HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new payments handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// CreateIntent handles intent creation
// @Summary Create a payment intent
// @Description Sanitizes the order, stores a pending payment and returns the client secret
// @Tags payments
// @Accept json
// @Produce json
// @Param request body payments.CreateIntentRequest true "Create intent request"
// @Success 200 {object} payments.CreateIntentResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /api/payments/create-intent [post]
func (h *Handlers) CreateIntent(c *fiber.Ctx) error {
	var req payments.CreateIntentRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateIntent"); err != nil {
		return err
	}

	resp, err := h.service.CreateIntent(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "CreateIntent")
	}

	return c.JSON(resp)
}

// RecordResult stores the client-side confirmation outcome
// @Summary Record a payment result
// @Tags payments
// @Accept json
// @Produce json
// @Param request body payments.RecordResultRequest true "Record result request"
// @Success 200 {object} payments.RecordResultResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /api/payments/record-result [post]
func (h *Handlers) RecordResult(c *fiber.Ctx) error {
	var req payments.RecordResultRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "RecordResult"); err != nil {
		return err
	}

	resp, err := h.service.RecordResult(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "RecordResult", payments.ErrPaymentNotFound)
	}

	return c.JSON(resp)
}

// List returns every payment
// @Summary List payments
// @Description All payments, newest first
// @Tags payments
// @Produce json
// @Success 200 {array} payments.Payment
// @Failure 500 {object} httperr.E
// @Router /get-all-payments [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext())
	if err != nil {
		return handlerutil.HandleServiceError(err, "List")
	}

	return c.JSON(list)
}
