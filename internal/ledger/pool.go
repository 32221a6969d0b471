package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentlover/platform/internal/domain"
)

// PoolLedger runs each engine command in its own pgx transaction.
type PoolLedger struct {
	pool   *pgxpool.Pool
	engine *Engine
}

// NewPoolLedger wraps engine with transaction handling over pool.
func NewPoolLedger(pool *pgxpool.Pool, engine *Engine) *PoolLedger {
	return &PoolLedger{pool: pool, engine: engine}
}

// OpenBooking persists a priced booking and its pending transaction.
func (l *PoolLedger) OpenBooking(ctx context.Context, booking *domain.Booking) (*domain.TransactionRecord, error) {
	var record *domain.TransactionRecord
	err := l.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		record, _, err = l.engine.ExecuteOpenBooking(ctx, tx, booking)
		return err
	})
	return record, err
}

func (l *PoolLedger) ApplyGatewayOutcome(ctx context.Context, id uuid.UUID, outcome domain.GatewayOutcome, source domain.TransitionSource) (*domain.TransitionResult, error) {
	return l.transition(ctx, func(tx pgx.Tx) (*domain.TransitionResult, error) {
		return l.engine.ExecuteGatewayOutcome(ctx, tx, id, outcome, source)
	})
}

func (l *PoolLedger) Confirm(ctx context.Context, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error) {
	return l.transition(ctx, func(tx pgx.Tx) (*domain.TransitionResult, error) {
		return l.engine.ExecuteConfirm(ctx, tx, id, source, reference)
	})
}

func (l *PoolLedger) Settle(ctx context.Context, id uuid.UUID, gross int64, reference string) (*domain.TransitionResult, error) {
	return l.transition(ctx, func(tx pgx.Tx) (*domain.TransitionResult, error) {
		return l.engine.ExecuteSettlement(ctx, tx, id, gross, reference)
	})
}

func (l *PoolLedger) Refund(ctx context.Context, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error) {
	return l.transition(ctx, func(tx pgx.Tx) (*domain.TransitionResult, error) {
		return l.engine.ExecuteRefund(ctx, tx, id, source, reference)
	})
}

// Get returns a transaction with its status history and earning entries.
func (l *PoolLedger) Get(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error) {
	record, err := l.engine.transactions.FindByID(ctx, l.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find transaction", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound("transaction", id.String())
	}
	history, err := l.engine.transactions.ListStatusChanges(ctx, l.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("list status history", err)
	}
	earnings, err := l.engine.earnings.ListByTransaction(ctx, l.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("list earnings", err)
	}
	return &domain.TransactionDetail{Transaction: record, History: history, Earnings: earnings}, nil
}

func (l *PoolLedger) transition(ctx context.Context, fn func(pgx.Tx) (*domain.TransitionResult, error)) (*domain.TransitionResult, error) {
	var result *domain.TransitionResult
	err := l.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = fn(tx)
		return err
	})
	return result, err
}

func (l *PoolLedger) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}
	return nil
}
