package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"payments-portal/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles the payment lifecycle
type Service struct {
	repo     Repository
	provider IntentProvider
	bus      Bus
	tokens   TokenIssuer
	metrics  *Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new payments service
func NewService(repo Repository, provider IntentProvider, bus Bus, tokens TokenIssuer, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		bus:      bus,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

// WithMetrics attaches payment counters; nil disables them.
func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// CreateIntent stores a pending payment and opens an intent for it.
// req must already be sanitized and validated.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResponse, error) {
	now := s.now().UTC()
	p := &Payment{
		ID:           bson.NewObjectID(),
		OrderID:      req.OrderID,
		AmountCents:  req.Amount,
		Currency:     req.Currency,
		BillingEmail: req.Email,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error(ErrCreatePayment.Error(), "error", err, "order_id", p.OrderID)
		s.metrics.failure("store")
		return nil, ErrCreatePayment
	}

	params := IntentParams{
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		ReceiptEmail: p.BillingEmail,
		Metadata:     map[string]string{"orderId": p.OrderID},
	}

	intent, err := s.provider.CreateIntent(ctx, params)
	if err != nil {
		s.log.Error(ErrCreateIntent.Error(), "error", err, "payment_id", p.ID.Hex(), "order_id", p.OrderID)
		s.metrics.failure("provider")
		s.markFailed(ctx, p, err)
		return nil, ErrCreateIntent
	}

	p.PaymentIntentID = intent.ID
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		s.log.Error(ErrCreatePayment.Error(), "error", err, "payment_id", p.ID.Hex(), "intent_id", intent.ID)
		s.metrics.failure("store")
		return nil, ErrCreatePayment
	}

	token, err := s.tokens.Issue(p.ID)
	if err != nil {
		s.log.Error(ErrIssueStreamToken.Error(), "error", err, "payment_id", p.ID.Hex())
		return nil, ErrIssueStreamToken
	}

	s.metrics.created()
	s.log.Info("payment intent created", "payment_id", p.ID.Hex(), "intent_id", intent.ID, "amount_cents", p.AmountCents, "currency", p.Currency)

	return &CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PaymentID:       p.ID.Hex(),
		StreamToken:     token,
	}, nil
}

// markFailed records a provider error on p. Failures here are only logged,
// the caller already reports ErrCreateIntent.
func (s *Service) markFailed(ctx context.Context, p *Payment, cause error) {
	p.Status = StatusFailed
	p.LastError = truncate(sanitize.Clean(cause.Error()), MaxLastErrorLen)
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		s.log.Error("failed to mark payment as failed", "error", err, "payment_id", p.ID.Hex())
	}
}

// RecordResult applies a client-reported outcome to the matching payment.
// req must already be sanitized and validated.
func (s *Service) RecordResult(ctx context.Context, req RecordResultRequest) (*RecordResultResponse, error) {
	p, err := s.repo.FindByIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			s.log.Info("payment not found for result", "intent_id", req.PaymentIntentID)
			return nil, ErrPaymentNotFound
		}
		s.log.Error(ErrRecordResult.Error(), "error", err, "intent_id", req.PaymentIntentID)
		return nil, ErrRecordResult
	}

	previous := p.Status
	applyResult(p, req.Status, req.Error)
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		s.log.Error(ErrRecordResult.Error(), "error", err, "payment_id", p.ID.Hex(), "intent_id", req.PaymentIntentID)
		s.metrics.failure("store")
		return nil, ErrRecordResult
	}

	s.metrics.result(p.Status)
	s.log.Info("payment result recorded", "payment_id", p.ID.Hex(), "from", previous, "to", p.Status, "reported", req.Status)

	s.bus.Broadcast(ctx, PaymentEvent{
		Type:    "status",
		Payment: p,
	})

	return &RecordResultResponse{OK: true}, nil
}

// List returns every payment, newest first
func (s *Service) List(ctx context.Context) ([]*Payment, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ErrListPayments.Error(), "error", err)
		return nil, ErrListPayments
	}
	if list == nil {
		list = []*Payment{}
	}
	return list, nil
}
