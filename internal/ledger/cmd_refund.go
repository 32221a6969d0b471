package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/settlement"
)

// ExecuteRefund refunds a paid transaction and reverses the talent earning,
// or refunds a failed transaction whose funds had been captured.
// Pattern: Lock → Decide → ApplyDecision
func (e *Engine) ExecuteRefund(ctx context.Context, tx pgx.Tx, id uuid.UUID, source domain.TransitionSource, reference string) (*domain.TransitionResult, error) {
	current, err := e.LockTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	d, err := settlement.DecideRefund(*current)
	if err != nil {
		return nil, err
	}
	return e.ApplyDecision(ctx, tx, current, d, source, reference)
}
