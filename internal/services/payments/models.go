package payments

import (
	"math"
	"strings"
	"time"

	"payments-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Payment statuses as stored in the database.
const (
	StatusPending   = "PENDING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Column limits carried over from the payments table.
const (
	MaxCurrencyLen  = 10
	MaxEmailLen     = 255
	MaxLastErrorLen = 1000
	MaxOrderIDLen   = 128

	// MaxAmountCents is the largest amount a single intent may carry.
	MaxAmountCents = 99_999_999
)

// Payment is a single checkout attempt for an order
type Payment struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	OrderID         string        `bson:"order_id" json:"orderId" example:"ORD-1042"`
	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty" example:"pi_01j9x4m8q5r2a7b3c6d9e0f1g2"`
	AmountCents     int64         `bson:"amount_cents" json:"amountCents" example:"1999"`
	Currency        string        `bson:"currency" json:"currency" example:"usd"`
	BillingEmail    string        `bson:"billing_email,omitempty" json:"billingEmail,omitempty" example:"buyer@example.com"`
	Status          string        `bson:"status" json:"status" example:"PENDING"`
	LastError       string        `bson:"last_error,omitempty" json:"lastError,omitempty" example:"card declined"`
	CreatedAt       time.Time     `bson:"created_at" json:"createdAt" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updatedAt" example:"2025-06-01T23:00:26.005703677Z"`
}

// PaymentEvent is pushed to stream subscribers when a payment changes
type PaymentEvent struct {
	Type    string   `json:"type"` // "status"
	Payment *Payment `json:"payment"`
}

// IntentParams describes the intent requested from the provider
type IntentParams struct {
	AmountCents  int64
	Currency     string
	ReceiptEmail string
	Metadata     map[string]string
}

// Intent is what the provider hands back for a created intent
type Intent struct {
	ID           string
	ClientSecret string
}

// CreateIntentRequest represents a create-intent request.
// AmountCents accepts a JSON number or a string typed into a form field.
type CreateIntentRequest struct {
	OrderID     string `json:"orderId" validate:"required,max=128" example:"ORD-1042"`
	AmountCents any    `json:"amountCents" swaggertype:"number" example:"1999"`
	Currency    string `json:"currency" validate:"required,alpha,min=3,max=10" example:"usd"`
	Email       string `json:"email" validate:"omitempty,email,max=255" example:"buyer@example.com"`

	// Amount is AmountCents after sanitization.
	Amount int64 `json:"-" validate:"min=1,max=99999999"`
}

// Sanitize cleans every field in place. Validation runs on the result.
func (r *CreateIntentRequest) Sanitize() {
	r.OrderID = sanitize.Clean(r.OrderID)
	r.Currency = strings.ToLower(sanitize.Clean(r.Currency))
	r.Email = sanitize.Clean(r.Email)
	r.Amount = toCents(sanitize.Number(r.AmountCents))
}

// CreateIntentResponse is returned once the intent exists
type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret" example:"pi_01j9x4m8q5r2a7b3c6d9e0f1g2_secret_4f9a"`
	PaymentIntentID string `json:"paymentIntentId" example:"pi_01j9x4m8q5r2a7b3c6d9e0f1g2"`
	PaymentID       string `json:"paymentId" example:"683cdb8aa96ad71e8e075bd1"`
	StreamToken     string `json:"streamToken" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// RecordResultRequest carries the client-side outcome of a confirmation
type RecordResultRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=255" example:"pi_01j9x4m8q5r2a7b3c6d9e0f1g2"`
	Status          string `json:"status" validate:"required,max=64" example:"succeeded"`
	Error           string `json:"error" example:"Your card was declined."`
}

// Sanitize cleans every field in place. Validation runs on the result.
func (r *RecordResultRequest) Sanitize() {
	r.PaymentIntentID = sanitize.Clean(r.PaymentIntentID)
	r.Status = sanitize.Clean(r.Status)
	r.Error = truncate(sanitize.Clean(r.Error), MaxLastErrorLen)
}

// RecordResultResponse acknowledges a recorded result
type RecordResultResponse struct {
	OK bool `json:"ok" example:"true"`
}

// toCents rounds a sanitized amount to whole cents. Values that don't fit
// are pushed just past MaxAmountCents so validation rejects them.
func toCents(f float64) int64 {
	f = math.Round(f)
	if f > MaxAmountCents {
		return MaxAmountCents + 1
	}
	if f < 0 {
		return -1
	}
	return int64(f)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
