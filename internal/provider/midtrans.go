package provider

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentlover/platform/internal/domain"
)

// MidtransKind says which ledger command a notification drives.
type MidtransKind string

const (
	MidtransOutcome MidtransKind = "outcome"
	MidtransConfirm MidtransKind = "confirm"
	MidtransRefund  MidtransKind = "refund"
	// MidtransPartialRefund is acknowledged without a ledger transition;
	// an operator settles the talent's share by hand.
	MidtransPartialRefund MidtransKind = "partial_refund"
)

// MidtransNotification is the HTTP notification body posted by Midtrans.
type MidtransNotification struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
}

// MidtransEvent is a verified notification mapped onto the ledger.
type MidtransEvent struct {
	TransactionID  uuid.UUID
	Kind           MidtransKind
	Outcome        domain.GatewayOutcome
	IdempotencyKey string
}

// MidtransProvider verifies and maps Midtrans payment notifications.
type MidtransProvider struct {
	serverKey string
}

// NewMidtransProvider creates a Midtrans provider.
func NewMidtransProvider(serverKey string) *MidtransProvider {
	return &MidtransProvider{serverKey: serverKey}
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// ParseNotification decodes and verifies a notification body.
func (m *MidtransProvider) ParseNotification(payload []byte) (*MidtransEvent, error) {
	if m.serverKey == "" {
		return nil, fmt.Errorf("midtrans server key not configured")
	}

	var n MidtransNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if n.OrderID == "" || n.SignatureKey == "" {
		return nil, fmt.Errorf("notification missing order_id or signature_key")
	}

	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return nil, fmt.Errorf("invalid notification signature")
	}

	return MapNotification(n)
}

// MapNotification maps a verified notification. Unknown statuses fail
// closed with UNKNOWN_OUTCOME.
func MapNotification(n MidtransNotification) (*MidtransEvent, error) {
	txID, err := uuid.Parse(n.OrderID)
	if err != nil {
		return nil, domain.ErrValidation(fmt.Sprintf("order_id %q is not a transaction id", n.OrderID))
	}

	gross, err := parseGrossAmount(n.GrossAmount)
	if err != nil {
		return nil, err
	}

	evt := &MidtransEvent{
		TransactionID: txID,
		Outcome: domain.GatewayOutcome{
			OrderID:       n.OrderID,
			PaymentMethod: n.PaymentType,
			GrossAmount:   gross,
			Reference:     n.TransactionID,
		},
		IdempotencyKey: "midtrans:" + n.OrderID + ":" + n.StatusCode + ":" + n.TransactionStatus,
	}

	switch strings.ToLower(n.TransactionStatus) {
	case "capture":
		evt.Kind = MidtransOutcome
		switch strings.ToLower(n.FraudStatus) {
		case "", "accept":
			evt.Outcome.Status = domain.GatewaySuccess
		case "challenge":
			evt.Outcome.Status = domain.GatewayPending
		default:
			evt.Outcome.Status = domain.GatewayError
			evt.Outcome.FundsCaptured = true
		}
	case "settlement":
		evt.Kind = MidtransConfirm
	case "pending":
		evt.Kind = MidtransOutcome
		evt.Outcome.Status = domain.GatewayPending
	case "deny", "cancel", "expire", "failure":
		evt.Kind = MidtransOutcome
		evt.Outcome.Status = domain.GatewayError
	case "refund":
		evt.Kind = MidtransRefund
	case "partial_refund":
		evt.Kind = MidtransPartialRefund
	default:
		return nil, domain.ErrUnknownOutcome(n.TransactionStatus)
	}
	return evt, nil
}

// parseGrossAmount turns "27500.00" into 27500 minor units. Fractions are
// rejected since amounts are whole rupiah.
func parseGrossAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.ErrValidation(fmt.Sprintf("gross_amount %q is not a number", s))
	}
	if !d.Equal(d.Truncate(0)) || d.IsNegative() {
		return 0, domain.ErrValidation(fmt.Sprintf("gross_amount %q is not a whole amount", s))
	}
	return d.IntPart(), nil
}
