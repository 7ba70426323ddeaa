package payments

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for payments repository operations
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	FindByIntentID(ctx context.Context, intentID string) (*Payment, error)
	List(ctx context.Context) ([]*Payment, error)
}

// IntentProvider creates payment intents with the payment processor
type IntentProvider interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
}

// Bus defines the interface for event broadcasting
type Bus interface {
	Broadcast(ctx context.Context, ev PaymentEvent)
}

// TokenIssuer signs stream tokens scoped to one payment
type TokenIssuer interface {
	Issue(paymentID bson.ObjectID) (string, error)
}
