package ledger

import (
	"strings"

	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/settlement"
)

// earningFor returns the talent earning movement a decision implies, or nil.
// Reversals carry a negative amount so a talent's entries sum to their balance.
func earningFor(tx *domain.TransactionRecord, d settlement.Decision) *domain.EarningEntry {
	switch {
	case d.CreditEarning:
		return &domain.EarningEntry{
			TransactionID: tx.ID,
			TalentID:      tx.TalentID,
			EntryType:     domain.EarningCredit,
			Amount:        tx.TalentEarning,
		}
	case d.ReverseEarning:
		return &domain.EarningEntry{
			TransactionID: tx.ID,
			TalentID:      tx.TalentID,
			EntryType:     domain.EarningReversal,
			Amount:        -tx.TalentEarning,
		}
	}
	return nil
}

// methodFor prefers the method the gateway reports over the one the
// customer picked at booking time.
func methodFor(outcome domain.GatewayOutcome, tx *domain.TransactionRecord) string {
	if m := strings.TrimSpace(outcome.PaymentMethod); m != "" {
		return m
	}
	return tx.PaymentMethod
}
