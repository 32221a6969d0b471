package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/settlement"
)

// ExecuteGatewayOutcome applies a gateway-reported outcome.
// Pattern: Lock → Decide → ApplyDecision
func (e *Engine) ExecuteGatewayOutcome(ctx context.Context, tx pgx.Tx, id uuid.UUID, outcome domain.GatewayOutcome, source domain.TransitionSource) (*domain.TransitionResult, error) {
	current, err := e.LockTransactionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("gateway outcome: %w", err)
	}

	deferred := e.routing.IsDeferred(methodFor(outcome, current))
	d, err := settlement.DecideOutcome(*current, outcome, deferred)
	if err != nil {
		return nil, err
	}
	return e.ApplyDecision(ctx, tx, current, d, source, outcome.Reference)
}
