package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/guard"
	"github.com/rentlover/platform/internal/provider"
)

// TransactionLedger applies settlement commands, each atomically.
type TransactionLedger interface {
	ApplyGatewayOutcome(ctx context.Context, id uuid.UUID, outcome domain.GatewayOutcome, source domain.TransitionSource) (*domain.TransitionResult, error)
	Confirm(ctx context.Context, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error)
	Settle(ctx context.Context, id uuid.UUID, gross int64, reference string) (*domain.TransitionResult, error)
	Refund(ctx context.Context, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error)
}

// NotificationParser verifies and maps raw gateway notifications.
type NotificationParser interface {
	ParseNotification(payload []byte) (*provider.MidtransEvent, error)
}

// GatewayOutcomeRequest is the widget-reported outcome.
type GatewayOutcomeRequest struct {
	Status        string `json:"status" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"max=64"`
	GrossAmount   int64  `json:"gross_amount" validate:"gte=0"`
	Reference     string `json:"reference" validate:"max=128"`
}

// WebhookAck summarizes what a gateway notification did.
type WebhookAck struct {
	TransactionID uuid.UUID             `json:"transaction_id"`
	Kind          provider.MidtransKind `json:"kind"`
	Status        domain.PaymentStatus  `json:"status,omitempty"`
	Idempotent    bool                  `json:"idempotent"`
	Duplicate     bool                  `json:"duplicate,omitempty"`
}

// TransactionService reconciles gateway outcomes and admin actions onto
// transactions.
type TransactionService struct {
	ledger TransactionLedger
	parser NotificationParser
	replay *guard.IdempotencyGuard
	logger *slog.Logger
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(ledger TransactionLedger, parser NotificationParser, replay *guard.IdempotencyGuard, logger *slog.Logger) *TransactionService {
	return &TransactionService{ledger: ledger, parser: parser, replay: replay, logger: logger}
}

// Get returns a transaction with its history.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error) {
	return s.ledger.Get(ctx, id)
}

// ApplyGatewayOutcome applies a widget-reported outcome. Unrecognized
// statuses fail closed with UNKNOWN_OUTCOME.
func (s *TransactionService) ApplyGatewayOutcome(ctx context.Context, id uuid.UUID, req GatewayOutcomeRequest) (*domain.TransitionResult, error) {
	status, err := domain.ParseGatewayStatus(req.Status)
	if err != nil {
		s.logger.Warn("rejected gateway outcome", "transaction_id", id, "status", req.Status)
		return nil, err
	}
	if req.GrossAmount < 0 {
		return nil, domain.ErrValidation("gross_amount must not be negative")
	}

	outcome := domain.GatewayOutcome{
		OrderID:       id.String(),
		Status:        status,
		PaymentMethod: req.PaymentMethod,
		GrossAmount:   req.GrossAmount,
		Reference:     req.Reference,
	}
	result, err := s.ledger.ApplyGatewayOutcome(ctx, id, outcome, domain.SourceGatewayCallback)
	if err != nil {
		return nil, err
	}
	s.logTransition(result, domain.SourceGatewayCallback)
	return result, nil
}

// Confirm settles a pending or pending_verification transaction as paid.
func (s *TransactionService) Confirm(ctx context.Context, id uuid.UUID, reference string) (*domain.TransitionResult, error) {
	result, err := s.ledger.Confirm(ctx, id, domain.SourceAdmin, reference)
	if err != nil {
		return nil, err
	}
	s.logTransition(result, domain.SourceAdmin)
	return result, nil
}

// Refund moves a paid (or captured-then-failed) transaction to refunded.
func (s *TransactionService) Refund(ctx context.Context, id uuid.UUID, reference string) (*domain.TransitionResult, error) {
	result, err := s.ledger.Refund(ctx, id, domain.SourceAdmin, reference)
	if err != nil {
		return nil, err
	}
	s.logTransition(result, domain.SourceAdmin)
	return result, nil
}

// HandleMidtransNotification verifies a Midtrans notification and applies
// it. Replays seen by this process are acknowledged without touching the
// ledger; the ledger itself is idempotent for the rest.
func (s *TransactionService) HandleMidtransNotification(ctx context.Context, payload []byte) (*WebhookAck, error) {
	evt, err := s.parser.ParseNotification(payload)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domain.ErrUnauthorized("notification verification failed: " + err.Error())
	}

	ack := &WebhookAck{TransactionID: evt.TransactionID, Kind: evt.Kind}
	if res := s.replay.Check(ctx, evt.IdempotencyKey); !res.Allowed {
		s.logger.Info("duplicate gateway notification", "key", evt.IdempotencyKey)
		ack.Duplicate = true
		ack.Idempotent = true
		return ack, nil
	}

	var result *domain.TransitionResult
	switch evt.Kind {
	case provider.MidtransConfirm:
		result, err = s.ledger.Settle(ctx, evt.TransactionID, evt.Outcome.GrossAmount, evt.Outcome.Reference)
	case provider.MidtransRefund:
		result, err = s.ledger.Refund(ctx, evt.TransactionID, domain.SourceGatewayWebhook, evt.Outcome.Reference)
	case provider.MidtransPartialRefund:
		return s.acknowledgePartialRefund(ctx, evt, ack)
	default:
		result, err = s.ledger.ApplyGatewayOutcome(ctx, evt.TransactionID, evt.Outcome, domain.SourceGatewayWebhook)
	}
	if err != nil {
		s.replay.Remove(evt.IdempotencyKey)
		return nil, err
	}

	s.logTransition(result, domain.SourceGatewayWebhook)
	ack.Status = result.Transaction.Status
	ack.Idempotent = result.Idempotent
	return ack, nil
}

// acknowledgePartialRefund leaves the transaction untouched. A partial
// refund cannot be expressed by the ledger, so an operator handles it.
func (s *TransactionService) acknowledgePartialRefund(ctx context.Context, evt *provider.MidtransEvent, ack *WebhookAck) (*WebhookAck, error) {
	detail, err := s.ledger.Get(ctx, evt.TransactionID)
	if err != nil {
		s.replay.Remove(evt.IdempotencyKey)
		return nil, err
	}
	s.logger.Warn("partial refund requires manual handling",
		"transaction_id", evt.TransactionID,
		"status", detail.Transaction.Status,
		"refunded_amount", evt.Outcome.GrossAmount,
		"amount", detail.Transaction.Amount,
		"reference", evt.Outcome.Reference,
	)
	ack.Status = detail.Transaction.Status
	ack.Idempotent = true
	return ack, nil
}

func (s *TransactionService) logTransition(r *domain.TransitionResult, source domain.TransitionSource) {
	if r.Idempotent {
		s.logger.Debug("transaction transition idempotent", "transaction_id", r.Transaction.ID, "status", r.Transaction.Status, "source", source)
		return
	}
	s.logger.Info("transaction transitioned",
		"transaction_id", r.Transaction.ID,
		"from", r.Previous,
		"to", r.Transaction.Status,
		"source", source,
		"earning", r.Earning != nil,
	)
}
