package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/settlement"
)

// ExecuteConfirm settles a pending or pending_verification transaction as
// paid. Sources are an admin or the gateway's settlement webhook.
// Pattern: Lock → Decide → ApplyDecision
func (e *Engine) ExecuteConfirm(ctx context.Context, tx pgx.Tx, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error) {
	current, err := e.LockTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}

	d, err := settlement.DecideConfirm(*current)
	if err != nil {
		return nil, err
	}
	return e.ApplyDecision(ctx, tx, current, d, source, reference)
}

// ExecuteSettlement is ExecuteConfirm for the gateway's settlement webhook:
// gross must equal the locked transaction's amount.
func (e *Engine) ExecuteSettlement(ctx context.Context, tx pgx.Tx, id uuid.UUID, gross int64, reference string) (*domain.TransitionResult, error) {
	current, err := e.LockTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	d, err := settlement.DecideSettlement(*current, gross)
	if err != nil {
		return nil, err
	}
	return e.ApplyDecision(ctx, tx, current, d, domain.SourceGatewayWebhook, reference)
}
