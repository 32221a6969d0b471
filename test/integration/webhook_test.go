//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/service"
	"github.com/rentlover/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Midtrans Webhook Tests ───────────────────────────────────────────────

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestMidtransWebhook_CaptureThenReplay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentVIP)
	txID := env.SeedTransaction(customerID, talentID, 27500, 21250, domain.PaymentPending)
	body := testutil.MidtransNotification(txID.String(), "200", "capture", "27500.00")

	// Webhook endpoint does not require JWT auth; the signature is in the body.
	resp := env.RawPOST("/webhooks/midtrans", body, jsonHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack service.WebhookAck
	testutil.DecodeJSON(t, resp, &ack)
	assert.Equal(t, txID, ack.TransactionID)
	assert.Equal(t, domain.PaymentPaid, ack.Status)
	assert.False(t, ack.Duplicate)

	resp = env.RawPOST("/webhooks/midtrans", body, jsonHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var replay service.WebhookAck
	testutil.DecodeJSON(t, resp, &replay)
	assert.True(t, replay.Duplicate)

	assert.Equal(t, domain.PaymentPaid, testutil.TransactionStatus(t, env, txID))
	assert.Equal(t, 1, testutil.CountEarnings(t, env, txID, domain.EarningCredit))
}

func TestMidtransWebhook_InvalidSignature(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentFresh)
	txID := env.SeedTransaction(customerID, talentID, 27500, 20000, domain.PaymentPending)

	body := testutil.MidtransNotificationWithKey(txID.String(), "200", "capture", "27500.00", "not-the-key")
	resp := env.RawPOST("/webhooks/midtrans", body, jsonHeaders)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, domain.PaymentPending, testutil.TransactionStatus(t, env, txID))
}

func TestMidtransWebhook_DenyFailsTransaction(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentFresh)
	txID := env.SeedTransaction(customerID, talentID, 27500, 20000, domain.PaymentPending)

	resp := env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "202", "deny", "27500.00"), jsonHeaders)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.PaymentFailed, testutil.TransactionStatus(t, env, txID))

	// A later capture for the same order cannot resurrect it.
	resp = env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "200", "capture", "27500.00"), jsonHeaders)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.PaymentFailed, testutil.TransactionStatus(t, env, txID))
	assert.Equal(t, 0, testutil.CountEarnings(t, env, txID, domain.EarningCredit))
}

func TestMidtransWebhook_UnknownStatus(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentFresh)
	txID := env.SeedTransaction(customerID, talentID, 27500, 20000, domain.PaymentPending)

	resp := env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "201", "authorize", "27500.00"), jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	testutil.AssertErrorCode(t, resp, "UNKNOWN_OUTCOME")
}

func TestMidtransWebhook_UnknownOrder(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(uuid.NewString(), "200", "capture", "27500.00"), jsonHeaders)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMidtransWebhook_SettlementAmountMustMatch(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentFresh)
	txID := env.SeedTransaction(customerID, talentID, 27500, 20000, domain.PaymentPendingVerification)

	resp := env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "200", "settlement", "1000.00"), jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
	assert.Equal(t, domain.PaymentPendingVerification, testutil.TransactionStatus(t, env, txID))

	resp = env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "200", "settlement", "27500.00"), jsonHeaders)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.PaymentPaid, testutil.TransactionStatus(t, env, txID))
	assert.Equal(t, 1, testutil.CountEarnings(t, env, txID, domain.EarningCredit))
}

func TestMidtransWebhook_PartialRefundKeepsEarning(t *testing.T) {
	env := testutil.NewTestEnv(t)
	customerID, talentID := env.SeedVerifiedPair(domain.TalentFresh)
	txID := env.SeedTransaction(customerID, talentID, 27500, 20000, domain.PaymentPending)

	resp := env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "200", "capture", "27500.00"), jsonHeaders)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.RawPOST("/webhooks/midtrans",
		testutil.MidtransNotification(txID.String(), "200", "partial_refund", "1000.00"), jsonHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack service.WebhookAck
	testutil.DecodeJSON(t, resp, &ack)
	assert.Equal(t, domain.PaymentPaid, ack.Status)

	assert.Equal(t, domain.PaymentPaid, testutil.TransactionStatus(t, env, txID))
	assert.Equal(t, 0, testutil.CountEarnings(t, env, txID, domain.EarningReversal))
}
