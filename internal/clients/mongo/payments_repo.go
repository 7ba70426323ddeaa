package mongo

import (
	"context"
	"errors"
	"fmt"

	"payments-portal/internal/services/payments"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrPaymentIDRequired is returned when Update gets a payment without an id.
var ErrPaymentIDRequired = errors.New("payment id is required")

// PaymentsRepo implements the payments.Repository interface for MongoDB.
// Values it stores have already been through the sanitizer.
type PaymentsRepo struct {
	collection *mongo.Collection
}

func withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithRepoTimeout(parent, OpTimeout)
}

// NewPaymentsRepo creates a new payments repository and ensures its indexes.
func NewPaymentsRepo(ctx context.Context, db *mongo.Database) (*PaymentsRepo, error) {
	collection := db.Collection("payments")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_payment_intent_id").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment_intent_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("%w: %w", payments.ErrCreatePaymentsRepo, err)
	}

	return &PaymentsRepo{collection: collection}, nil
}

// Create inserts a new payment.
func (r *PaymentsRepo) Create(ctx context.Context, p *payments.Payment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, p)
	return err
}

// Update replaces the stored payment with p.
func (r *PaymentsRepo) Update(ctx context.Context, p *payments.Payment) error {
	if p.ID.IsZero() {
		return ErrPaymentIDRequired
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return payments.ErrPaymentNotFound
	}
	return nil
}

// FindByIntentID returns the payment linked to a provider intent.
func (r *PaymentsRepo) FindByIntentID(ctx context.Context, intentID string) (*payments.Payment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p payments.Payment
	err := r.collection.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, payments.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all payments, newest first.
func (r *PaymentsRepo) List(ctx context.Context) ([]*payments.Payment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	list := []*payments.Payment{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
