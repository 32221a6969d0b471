package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- earningFor Tests ---

func TestEarningFor(t *testing.T) {
	tx := &domain.TransactionRecord{ID: uuid.New(), TalentID: uuid.New(), TalentEarning: 20000}

	t.Run("credit on entering paid", func(t *testing.T) {
		e := earningFor(tx, settlement.Decision{CreditEarning: true})
		require.NotNil(t, e)
		assert.Equal(t, domain.EarningCredit, e.EntryType)
		assert.Equal(t, int64(20000), e.Amount)
		assert.Equal(t, tx.TalentID, e.TalentID)
	})

	t.Run("reversal is negative", func(t *testing.T) {
		e := earningFor(tx, settlement.Decision{ReverseEarning: true})
		require.NotNil(t, e)
		assert.Equal(t, domain.EarningReversal, e.EntryType)
		assert.Equal(t, int64(-20000), e.Amount)
	})

	t.Run("no earning effect", func(t *testing.T) {
		assert.Nil(t, earningFor(tx, settlement.Decision{To: domain.PaymentFailed}))
	})
}

// --- methodFor Tests ---

func TestMethodFor(t *testing.T) {
	tx := &domain.TransactionRecord{PaymentMethod: "gopay"}

	t.Run("gateway method wins", func(t *testing.T) {
		assert.Equal(t, "bank_transfer", methodFor(domain.GatewayOutcome{PaymentMethod: "bank_transfer"}, tx))
	})

	t.Run("falls back to booking method", func(t *testing.T) {
		assert.Equal(t, "gopay", methodFor(domain.GatewayOutcome{PaymentMethod: "  "}, tx))
	})
}

// --- ApplyDecision Tests ---

func TestApplyDecision_NoopWritesNothing(t *testing.T) {
	// Repositories are nil: a no-op decision must not touch them.
	e := &Engine{}
	current := &domain.TransactionRecord{ID: uuid.New(), Status: domain.PaymentPaid}

	result, err := e.ApplyDecision(context.Background(), nil, current, settlement.Decision{Noop: true}, domain.SourceGatewayCallback, "")
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, domain.PaymentPaid, result.Previous)
	assert.Same(t, current, result.Transaction)
	assert.Nil(t, result.Earning)
}
