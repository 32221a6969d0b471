package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/policy"
	"github.com/rentlover/platform/internal/repository"
	"github.com/rentlover/platform/internal/settlement"
)

// Engine provides the foundational money operations:
//  1. LockTransactionForUpdate: row-level pessimistic lock
//  2. ApplyDecision: status write + history row + earning entry + outbox events
//
// Every command runs inside the caller's pgx transaction.
type Engine struct {
	bookings     repository.BookingRepository
	transactions repository.TransactionRepository
	earnings     repository.EarningRepository
	outbox       repository.OutboxRepository
	routing      policy.PaymentRoutingPolicy
	now          func() time.Time
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	bookings repository.BookingRepository,
	transactions repository.TransactionRepository,
	earnings repository.EarningRepository,
	outbox repository.OutboxRepository,
	routing policy.PaymentRoutingPolicy,
) *Engine {
	return &Engine{
		bookings:     bookings,
		transactions: transactions,
		earnings:     earnings,
		outbox:       outbox,
		routing:      routing,
		now:          time.Now,
	}
}

// Routing returns the payment routing policy the engine settles with.
func (e *Engine) Routing() policy.PaymentRoutingPolicy { return e.routing }

// LockTransactionForUpdate acquires a row-level lock and returns the transaction.
// Must be called within a transaction.
func (e *Engine) LockTransactionForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.TransactionRecord, error) {
	record, err := e.transactions.LockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound("transaction", id.String())
	}
	return record, nil
}

// ApplyDecision persists one settlement decision against a locked
// transaction. A no-op decision writes nothing and is reported as idempotent.
//
// Steps for an applied transition:
//  1. Update status, captured amount and gateway reference
//  2. Append a status history row
//  3. Insert the earning credit or reversal (unique per transaction and type)
//  4. Insert outbox events
func (e *Engine) ApplyDecision(
	ctx context.Context,
	tx pgx.Tx,
	current *domain.TransactionRecord,
	d settlement.Decision,
	source domain.TransitionSource,
	reference string,
) (*domain.TransitionResult, error) {
	if d.Noop {
		return &domain.TransitionResult{Transaction: current, Previous: current.Status, Idempotent: true}, nil
	}

	updated, err := e.transactions.UpdateStatus(ctx, tx, current.ID, d.To, d.CapturedAmount, reference)
	if err != nil {
		return nil, err
	}

	if err := e.transactions.InsertStatusChange(ctx, tx, domain.StatusChange{
		TransactionID: current.ID,
		From:          d.From,
		To:            d.To,
		Source:        source,
		Reference:     reference,
		CreatedAt:     e.now().UTC(),
	}); err != nil {
		return nil, err
	}

	result := &domain.TransitionResult{
		Transaction: updated,
		Previous:    d.From,
		Events:      []domain.OutboxDraft{domain.NewTransactionStatusChangedEvent(updated, d.From, source)},
	}

	if entry := earningFor(updated, d); entry != nil {
		inserted, err := e.earnings.Insert(ctx, tx, entry)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Earning = entry
			result.Events = append(result.Events, domain.NewEarningEvent(entry))
		}
	}

	for _, evt := range result.Events {
		if err := e.outbox.Insert(ctx, tx, evt); err != nil {
			return nil, fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return result, nil
}
