package settlement

import (
	"github.com/rentlover/platform/internal/domain"
)

func decide(tx domain.TransactionRecord, to domain.PaymentStatus, action Action) (Decision, error) {
	from := tx.Status
	d := Decision{From: from, To: to, Action: action, CapturedAmount: tx.CapturedAmount}

	if from == to {
		d.Noop = true
		return d, nil
	}
	if !Allowed(from, to, action, tx.CapturedAmount) {
		return Decision{}, domain.ErrInvalidTransition(string(from), string(to))
	}

	switch to {
	case domain.PaymentPaid:
		d.CreditEarning = true
		d.CapturedAmount = tx.Amount
	case domain.PaymentRefunded:
		d.ReverseEarning = from == domain.PaymentPaid
	}
	return d, nil
}

// Allowed reports whether from -> to is legal for action. capturedAmount is
// what the gateway had already taken before the transaction failed.
func Allowed(from, to domain.PaymentStatus, action Action, capturedAmount int64) bool {
	switch from {
	case domain.PaymentPending:
		switch action {
		case ActionGatewayOutcome:
			return to == domain.PaymentPaid || to == domain.PaymentPendingVerification || to == domain.PaymentFailed
		case ActionConfirm:
			return to == domain.PaymentPaid
		}
		return false

	case domain.PaymentPendingVerification:
		switch action {
		case ActionGatewayOutcome:
			// A gateway callback may fail a deferred payment but never settle it.
			return to == domain.PaymentFailed
		case ActionConfirm:
			return to == domain.PaymentPaid
		}
		return false

	case domain.PaymentFailed:
		return action == ActionRefund && to == domain.PaymentRefunded && capturedAmount > 0

	case domain.PaymentPaid:
		return action == ActionRefund && to == domain.PaymentRefunded

	case domain.PaymentRefunded:
		return false
	}
	return false
}
