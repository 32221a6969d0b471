package provider

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentlover/platform/internal/domain"
)

const testServerKey = "SB-Mid-server-test"

func signedNotification(t *testing.T, n MidtransNotification) []byte {
	t.Helper()
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return b
}

func TestParseNotification_ValidCapture(t *testing.T) {
	p := NewMidtransProvider(testServerKey)
	id := uuid.New()

	evt, err := p.ParseNotification(signedNotification(t, MidtransNotification{
		TransactionID:     "mt-1",
		TransactionStatus: "capture",
		FraudStatus:       "accept",
		StatusCode:        "200",
		OrderID:           id.String(),
		GrossAmount:       "27500.00",
		PaymentType:       "credit_card",
	}))
	require.NoError(t, err)
	assert.Equal(t, id, evt.TransactionID)
	assert.Equal(t, MidtransOutcome, evt.Kind)
	assert.Equal(t, domain.GatewaySuccess, evt.Outcome.Status)
	assert.Equal(t, int64(27500), evt.Outcome.GrossAmount)
	assert.Equal(t, "credit_card", evt.Outcome.PaymentMethod)
	assert.Equal(t, "mt-1", evt.Outcome.Reference)
	assert.Equal(t, "midtrans:"+id.String()+":200:capture", evt.IdempotencyKey)
}

func TestParseNotification_InvalidSignature(t *testing.T) {
	p := NewMidtransProvider(testServerKey)
	n := MidtransNotification{
		TransactionStatus: "capture",
		StatusCode:        "200",
		OrderID:           uuid.NewString(),
		GrossAmount:       "27500.00",
		SignatureKey:      Signature("other", "200", "27500.00", testServerKey),
	}
	b, _ := json.Marshal(n)

	_, err := p.ParseNotification(b)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid notification signature")
}

func TestParseNotification_TamperedAmount(t *testing.T) {
	p := NewMidtransProvider(testServerKey)
	id := uuid.NewString()
	n := MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           id,
		GrossAmount:       "1.00",
		SignatureKey:      Signature(id, "200", "27500.00", testServerKey),
	}
	b, _ := json.Marshal(n)

	_, err := p.ParseNotification(b)
	assert.Error(t, err)
}

func TestParseNotification_NotConfigured(t *testing.T) {
	_, err := NewMidtransProvider("").ParseNotification([]byte(`{}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestMapNotification_Statuses(t *testing.T) {
	tests := []struct {
		status string
		fraud  string
		kind   MidtransKind
		want   domain.GatewayStatus
	}{
		{"capture", "", MidtransOutcome, domain.GatewaySuccess},
		{"capture", "challenge", MidtransOutcome, domain.GatewayPending},
		{"capture", "deny", MidtransOutcome, domain.GatewayError},
		{"settlement", "", MidtransConfirm, ""},
		{"pending", "", MidtransOutcome, domain.GatewayPending},
		{"deny", "", MidtransOutcome, domain.GatewayError},
		{"cancel", "", MidtransOutcome, domain.GatewayError},
		{"expire", "", MidtransOutcome, domain.GatewayError},
		{"failure", "", MidtransOutcome, domain.GatewayError},
		{"refund", "", MidtransRefund, ""},
		{"partial_refund", "", MidtransPartialRefund, ""},
	}
	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			evt, err := MapNotification(MidtransNotification{
				TransactionStatus: tt.status,
				FraudStatus:       tt.fraud,
				OrderID:           uuid.NewString(),
				GrossAmount:       "100.00",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, evt.Kind)
			assert.Equal(t, tt.want, evt.Outcome.Status)
		})
	}
}

func TestMapNotification_CaptureDenyMarksFundsCaptured(t *testing.T) {
	evt, err := MapNotification(MidtransNotification{
		TransactionStatus: "capture",
		FraudStatus:       "deny",
		OrderID:           uuid.NewString(),
		GrossAmount:       "100.00",
	})
	require.NoError(t, err)
	assert.True(t, evt.Outcome.FundsCaptured)
}

func TestMapNotification_PartialRefundIsNotARefund(t *testing.T) {
	evt, err := MapNotification(MidtransNotification{
		TransactionStatus: "partial_refund",
		StatusCode:        "200",
		OrderID:           uuid.NewString(),
		GrossAmount:       "1000",
	})
	require.NoError(t, err)
	assert.Equal(t, MidtransPartialRefund, evt.Kind)
	assert.NotEqual(t, MidtransRefund, evt.Kind)
	assert.Equal(t, int64(1000), evt.Outcome.GrossAmount)
	assert.Contains(t, evt.IdempotencyKey, ":partial_refund")
}

func TestMapNotification_UnknownStatusFailsClosed(t *testing.T) {
	_, err := MapNotification(MidtransNotification{
		TransactionStatus: "authorize",
		OrderID:           uuid.NewString(),
	})
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeUnknownOutcome))
}

func TestMapNotification_BadOrderID(t *testing.T) {
	_, err := MapNotification(MidtransNotification{TransactionStatus: "capture", OrderID: "ORDER-1"})
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestParseGrossAmount(t *testing.T) {
	v, err := parseGrossAmount("313500.00")
	require.NoError(t, err)
	assert.Equal(t, int64(313500), v)

	_, err = parseGrossAmount("10.50")
	assert.Error(t, err)
	_, err = parseGrossAmount("abc")
	assert.Error(t, err)
	_, err = parseGrossAmount("-5")
	assert.Error(t, err)
}
