package payments

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// StreamTokens signs and verifies the short-lived tokens that let a browser
// follow status changes of a single payment over the websocket.
type StreamTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStreamTokens creates an HS256 token signer.
func NewStreamTokens(secret string, ttl time.Duration) *StreamTokens {
	return &StreamTokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token scoped to paymentID.
func (t *StreamTokens) Issue(paymentID bson.ObjectID) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"payment_id": paymentID.Hex(),
		"exp":        now.Add(t.ttl).Unix(),
		"iat":        now.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIssueStreamToken, err)
	}
	return signed, nil
}

// PaymentIDFromToken returns the payment a verified stream token was issued
// for. The signature is checked by the caller; this enforces what Issue
// always writes: HS256, an expiry and a payment_id claim.
func PaymentIDFromToken(token *jwt.Token) (bson.ObjectID, error) {
	if token == nil || !token.Valid {
		return bson.NilObjectID, ErrInvalidStreamToken
	}
	if token.Method != jwt.SigningMethodHS256 {
		return bson.NilObjectID, fmt.Errorf("%w: unexpected alg %v", ErrInvalidStreamToken, token.Header["alg"])
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return bson.NilObjectID, ErrInvalidStreamToken
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return bson.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidStreamToken, errMissingExpiry)
	}

	hex, ok := claims["payment_id"].(string)
	if !ok || hex == "" {
		return bson.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidStreamToken, errMissingPaymentID)
	}

	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidStreamToken, err)
	}
	return id, nil
}

var (
	errMissingPaymentID = errors.New("missing payment_id claim")
	errMissingExpiry    = errors.New("missing exp claim")
)
