// Package intents creates payment intents for checkout.
package intents

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"payments-portal/internal/services/payments"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidAmount is returned for amounts below one cent.
var ErrInvalidAmount = errors.New("amount must be at least 1 cent")

// ErrInvalidCurrency is returned for an empty currency code.
var ErrInvalidCurrency = errors.New("currency is required")

// Local is a test-mode provider. It never talks to a processor; it only hands
// out intent ids and client secrets shaped like real ones.
type Local struct {
	log *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewLocal creates the test-mode provider.
func NewLocal(log *slog.Logger) *Local {
	return &Local{
		log:     log,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// CreateIntent implements payments.IntentProvider.
func (l *Local) CreateIntent(ctx context.Context, params payments.IntentParams) (*payments.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.AmountCents < 1 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(params.Currency) == "" {
		return nil, ErrInvalidCurrency
	}

	id, err := l.newID()
	if err != nil {
		return nil, err
	}

	secret := make([]byte, 12)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("client secret: %w", err)
	}

	l.log.Debug("local intent created", "intent_id", id, "amount_cents", params.AmountCents, "currency", params.Currency)

	return &payments.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + hex.EncodeToString(secret),
	}, nil
}

func (l *Local) newID() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), l.entropy)
	if err != nil {
		return "", fmt.Errorf("intent id: %w", err)
	}
	return "pi_" + strings.ToLower(id.String()), nil
}
