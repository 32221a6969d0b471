// Package settlement holds the transaction state rules: how gateway outcomes
// map onto payment statuses, which transitions are legal, and what each
// applied transition does to talent earnings. It performs no I/O.
package settlement

import (
	"github.com/rentlover/platform/internal/domain"
)

// Action is what is being asked of a transaction.
type Action string

const (
	ActionGatewayOutcome Action = "gateway_outcome"
	ActionConfirm        Action = "confirm"
	ActionRefund         Action = "refund"
)

// Decision describes one transition. A Noop decision must not write
// anything: the transaction is already in the requested state.
type Decision struct {
	From           domain.PaymentStatus
	To             domain.PaymentStatus
	Action         Action
	Noop           bool
	CapturedAmount int64
	// CreditEarning is set when the transaction enters paid.
	CreditEarning bool
	// ReverseEarning is set when a paid transaction is refunded.
	ReverseEarning bool
}

// MapOutcome maps a gateway status onto a payment status. Deferred methods
// never map straight to paid.
func MapOutcome(status domain.GatewayStatus, deferred bool) (domain.PaymentStatus, error) {
	switch status {
	case domain.GatewaySuccess:
		if deferred {
			return domain.PaymentPendingVerification, nil
		}
		return domain.PaymentPaid, nil
	case domain.GatewayPending:
		if deferred {
			return domain.PaymentPendingVerification, nil
		}
		return domain.PaymentPending, nil
	case domain.GatewayError:
		return domain.PaymentFailed, nil
	}
	return "", domain.ErrUnknownOutcome(string(status))
}

// DecideOutcome validates a gateway outcome against tx.
func DecideOutcome(tx domain.TransactionRecord, outcome domain.GatewayOutcome, deferred bool) (Decision, error) {
	to, err := MapOutcome(outcome.Status, deferred)
	if err != nil {
		return Decision{}, err
	}
	if outcome.Status == domain.GatewaySuccess {
		if err := checkGross(tx, outcome.GrossAmount); err != nil {
			return Decision{}, err
		}
	}

	d, err := decide(tx, to, ActionGatewayOutcome)
	if err != nil || d.Noop {
		return d, err
	}
	if to == domain.PaymentFailed && outcome.FundsCaptured {
		d.CapturedAmount = outcome.GrossAmount
		if d.CapturedAmount <= 0 {
			d.CapturedAmount = tx.Amount
		}
	}
	return d, nil
}

// DecideConfirm settles a pending or pending_verification transaction as
// paid. This is the only way out of pending_verification into paid.
func DecideConfirm(tx domain.TransactionRecord) (Decision, error) {
	return decide(tx, domain.PaymentPaid, ActionConfirm)
}

// DecideSettlement is DecideConfirm for a gateway settlement, which must
// report the full transaction amount.
func DecideSettlement(tx domain.TransactionRecord, gross int64) (Decision, error) {
	if err := checkGross(tx, gross); err != nil {
		return Decision{}, err
	}
	return DecideConfirm(tx)
}

// checkGross rejects a missing amount as well as a different one.
func checkGross(tx domain.TransactionRecord, gross int64) error {
	if gross != tx.Amount {
		return domain.ErrValidation("gross amount does not match transaction amount")
	}
	return nil
}

// DecideRefund refunds a paid transaction, or a failed one whose funds had
// already been captured.
func DecideRefund(tx domain.TransactionRecord) (Decision, error) {
	return decide(tx, domain.PaymentRefunded, ActionRefund)
}
