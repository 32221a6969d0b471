package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the persisted state of a TransactionRecord.
type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentFailed              PaymentStatus = "failed"
	PaymentRefunded            PaymentStatus = "refunded"
)

// ParsePaymentStatus returns false for values outside the persisted enum.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch v := PaymentStatus(s); v {
	case PaymentPending, PaymentPendingVerification, PaymentPaid, PaymentFailed, PaymentRefunded:
		return v, true
	}
	return "", false
}

// TransactionRecord is the money side of a booking. It is mutated only by
// verified status transitions.
type TransactionRecord struct {
	ID               uuid.UUID     `json:"id"`
	BookingID        uuid.UUID     `json:"booking_id"`
	CustomerID       uuid.UUID     `json:"customer_id"`
	TalentID         uuid.UUID     `json:"talent_id"`
	Amount           int64         `json:"amount"`
	TalentEarning    int64         `json:"talent_earning"`
	PlatformFee      int64         `json:"platform_fee"`
	PaymentMethod    string        `json:"payment_method"`
	GatewayReference string        `json:"gateway_reference,omitempty"`
	CapturedAmount   int64         `json:"captured_amount"`
	Status           PaymentStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// GatewayStatus is the coarse outcome reported by the payment widget.
type GatewayStatus string

const (
	GatewaySuccess GatewayStatus = "success"
	GatewayPending GatewayStatus = "pending"
	GatewayError   GatewayStatus = "error"
)

// ParseGatewayStatus fails closed: unknown values are not an outcome.
func ParseGatewayStatus(s string) (GatewayStatus, error) {
	switch v := GatewayStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case GatewaySuccess, GatewayPending, GatewayError:
		return v, nil
	}
	return "", ErrUnknownOutcome(s)
}

// GatewayOutcome is what the external gateway reports for one order.
type GatewayOutcome struct {
	OrderID       string        `json:"order_id"`
	Status        GatewayStatus `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	GrossAmount   int64         `json:"gross_amount"`
	Reference     string        `json:"reference,omitempty"`
	// FundsCaptured marks an error outcome that arrived after money moved.
	FundsCaptured bool `json:"funds_captured,omitempty"`
}

// TransitionSource records who caused a status change.
type TransitionSource string

const (
	SourceGatewayCallback TransitionSource = "gateway_callback"
	SourceGatewayWebhook  TransitionSource = "gateway_webhook"
	SourceAdmin           TransitionSource = "admin"
)

// EarningEntryType distinguishes credits from reversals in talent_earnings.
type EarningEntryType string

const (
	EarningCredit   EarningEntryType = "credit"
	EarningReversal EarningEntryType = "reversal"
)

// EarningEntry is an append-only talent earning movement. At most one entry
// of each type exists per transaction.
type EarningEntry struct {
	ID            int64            `json:"id"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	TalentID      uuid.UUID        `json:"talent_id"`
	EntryType     EarningEntryType `json:"entry_type"`
	Amount        int64            `json:"amount"`
	CreatedAt     time.Time        `json:"created_at"`
}

// StatusChange is one row of transaction_status_history.
type StatusChange struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	From          PaymentStatus    `json:"from"`
	To            PaymentStatus    `json:"to"`
	Source        TransitionSource `json:"source"`
	Reference     string           `json:"reference,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TransitionResult is the return value of every transaction command.
type TransitionResult struct {
	Transaction *TransactionRecord `json:"transaction"`
	Previous    PaymentStatus      `json:"previous_status"`
	Idempotent  bool               `json:"idempotent"` // true if the status was already current
	Earning     *EarningEntry      `json:"earning,omitempty"`
	Events      []OutboxDraft      `json:"-"`
}

// TransactionDetail is a transaction with its audit trail.
type TransactionDetail struct {
	Transaction *TransactionRecord `json:"transaction"`
	History     []StatusChange     `json:"history"`
	Earnings    []EarningEntry     `json:"earnings"`
}
