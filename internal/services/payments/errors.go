package payments

import "errors"

// ErrPaymentNotFound is returned when no payment matches the intent id.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrCreatePayment is returned when the payment could not be stored.
var ErrCreatePayment = errors.New("failed to create payment")

// ErrCreateIntent is returned when the provider refused to create an intent.
var ErrCreateIntent = errors.New("failed to create payment intent")

// ErrRecordResult is returned when a payment result could not be saved.
var ErrRecordResult = errors.New("failed to record payment result")

// ErrListPayments is returned when payments listing fails.
var ErrListPayments = errors.New("failed to list payments")

// ErrCreatePaymentsRepo is returned when payments repository creation fails.
var ErrCreatePaymentsRepo = errors.New("failed to create payments repository")

// ErrIssueStreamToken is returned when a stream token cannot be signed.
var ErrIssueStreamToken = errors.New("failed to issue stream token")

// ErrInvalidStreamToken is returned for expired, forged or malformed stream tokens.
var ErrInvalidStreamToken = errors.New("invalid stream token")
